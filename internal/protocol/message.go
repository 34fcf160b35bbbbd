package protocol

import "time"

type Message interface {
	Type() MessageType
}

// TranslationRequest carries one utterance from the watch to the phone.
// ID is stable across retries of the same logical request; a new user
// recording always gets a fresh ID.
type TranslationRequest struct {
	ID         string
	SourceLang string
	TargetLang string
	Text       string // transcribed on-device, if available
	Audio      []byte // inline recording, small utterances
	AudioRef   string // file-transfer reference, large recordings
	CreatedAt  time.Time
}

func (TranslationRequest) Type() MessageType { return MsgTranslationReq }

// TranslationResponse is the phone's authoritative answer for a request ID.
// Err is set when the remote backend failed; the response is still a valid
// terminal outcome for the request.
type TranslationResponse struct {
	RequestID        string
	TranscribedText  string
	TranslatedText   string
	Audio            []byte // synthesized speech, optional
	CreditsRemaining int64
	Err              string
}

func (TranslationResponse) Type() MessageType { return MsgTranslationRes }

// HealthProbe is a liveness round-trip. SentAt is the sender's clock in
// unix nanoseconds; the receiver echoes it back untouched so the sender
// can compute the RTT without the two devices agreeing on wall time.
type HealthProbe struct {
	SentAt int64
}

func (HealthProbe) Type() MessageType { return MsgHealthProbe }

type HealthProbeAck struct {
	SentAt int64
}

func (HealthProbeAck) Type() MessageType { return MsgHealthProbeAck }

type CreditsQuery struct {
	ID string
}

func (CreditsQuery) Type() MessageType { return MsgCreditsQuery }

type CreditsUpdate struct {
	RequestID string // empty for unsolicited pushes
	Remaining int64
}

func (CreditsUpdate) Type() MessageType { return MsgCreditsUpdate }

type LanguageSync struct {
	ID         string
	SourceLang string
	TargetLang string
}

func (LanguageSync) Type() MessageType { return MsgLanguageSync }

type Ack struct {
	RequestID string
}

func (Ack) Type() MessageType { return MsgAck }

type Error struct {
	RequestID string
	Code      ErrorCode
	Message   string
}

func (Error) Type() MessageType { return MsgError }
