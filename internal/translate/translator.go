// Package translate holds the phone side's remote service clients: the
// translation backend and the speech synthesizer. Both are interfaces so
// the relay service can run against mocks in tests.
package translate

import (
	"context"
	"errors"
)

var ErrEmptyText = errors.New("nothing to translate")

// Translator turns text from one language into another.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Speech synthesizes spoken audio for translated text. Synthesis is best
// effort; a failed synthesis never fails the translation itself.
type Speech interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}
