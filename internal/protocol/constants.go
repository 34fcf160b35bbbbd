package protocol

const (
	// MaxInlineAudio is the largest audio payload sent inline; bigger
	// recordings go through a file transfer and carry an AudioRef.
	MaxInlineAudio = 256 * 1024
)

type MessageType uint16

const (
	MsgHealthProbe    MessageType = 0x0001
	MsgHealthProbeAck MessageType = 0x0002
	MsgTranslationReq MessageType = 0x0010
	MsgTranslationRes MessageType = 0x0011
	MsgCreditsQuery   MessageType = 0x0020
	MsgCreditsUpdate  MessageType = 0x0021
	MsgLanguageSync   MessageType = 0x0030
	MsgAck            MessageType = 0x0040
	MsgError          MessageType = 0x00FF
)

func (t MessageType) String() string {
	switch t {
	case MsgHealthProbe:
		return "HEALTH_PROBE"
	case MsgHealthProbeAck:
		return "HEALTH_PROBE_ACK"
	case MsgTranslationReq:
		return "TRANSLATION_REQ"
	case MsgTranslationRes:
		return "TRANSLATION_RES"
	case MsgCreditsQuery:
		return "CREDITS_QUERY"
	case MsgCreditsUpdate:
		return "CREDITS_UPDATE"
	case MsgLanguageSync:
		return "LANGUAGE_SYNC"
	case MsgAck:
		return "ACK"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type ErrorCode uint16

const (
	ErrUnknown         ErrorCode = 0x0000
	ErrInvalidMsg      ErrorCode = 0x0001
	ErrNoCredits       ErrorCode = 0x0002
	ErrBadLanguage     ErrorCode = 0x0003
	ErrTranslateFailed ErrorCode = 0x0004
	ErrInternal        ErrorCode = 0x00FF
)

func (e ErrorCode) String() string {
	switch e {
	case ErrInvalidMsg:
		return "INVALID_MESSAGE"
	case ErrNoCredits:
		return "NO_CREDITS"
	case ErrBadLanguage:
		return "UNSUPPORTED_LANGUAGE"
	case ErrTranslateFailed:
		return "TRANSLATION_FAILED"
	case ErrInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}
