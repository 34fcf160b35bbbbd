package translate

import "context"

// StaticTranslator returns canned translations from a lookup table. Meant
// for tests and the offline demo mode of phoned.
type StaticTranslator struct {
	// Table maps source text to translated text.
	Table map[string]string
	// Err, when set, is returned for every call.
	Err error
}

var _ Translator = (*StaticTranslator)(nil)

func (s *StaticTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if out, ok := s.Table[text]; ok {
		return out, nil
	}
	// Echo keeps the demo mode usable for arbitrary input.
	return text, nil
}

// StaticSpeech returns a fixed audio payload for every synthesis call.
type StaticSpeech struct {
	Audio []byte
	Err   error
}

var _ Speech = (*StaticSpeech)(nil)

func (s *StaticSpeech) Synthesize(context.Context, string, string) ([]byte, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Audio, nil
}
