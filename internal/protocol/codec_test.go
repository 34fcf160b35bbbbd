package protocol

import (
	"bytes"
	"testing"
	"time"
)

func TestCodecTranslationRoundTrip(t *testing.T) {
	codec := NewCodec()
	var buf bytes.Buffer

	req := &TranslationRequest{
		ID:         "req-1",
		SourceLang: "en",
		TargetLang: "es",
		Text:       "good morning",
		CreatedAt:  time.Unix(1700000000, 0).UTC(),
	}
	if err := codec.Encode(&buf, req); err != nil {
		t.Fatalf("Encode TranslationRequest failed: %v", err)
	}

	decoded, err := codec.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode TranslationRequest failed: %v", err)
	}

	decodedReq, ok := decoded.(*TranslationRequest)
	if !ok {
		t.Fatalf("Expected *TranslationRequest, got %T", decoded)
	}

	if decodedReq.ID != "req-1" || decodedReq.TargetLang != "es" {
		t.Errorf("Request fields mismatch: %+v", decodedReq)
	}

	buf.Reset()
	audio := []byte("pcm audio bytes go here")
	res := &TranslationResponse{
		RequestID:        "req-1",
		TranslatedText:   "buenos días",
		Audio:            audio,
		CreditsRemaining: 41,
	}
	if err := codec.Encode(&buf, res); err != nil {
		t.Fatalf("Encode TranslationResponse failed: %v", err)
	}

	decoded, err = codec.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode TranslationResponse failed: %v", err)
	}

	decodedRes, ok := decoded.(*TranslationResponse)
	if !ok {
		t.Fatalf("Expected *TranslationResponse, got %T", decoded)
	}

	if !bytes.Equal(decodedRes.Audio, audio) {
		t.Error("Audio payload mismatch")
	}
	if decodedRes.CreditsRemaining != 41 {
		t.Errorf("Expected 41 credits, got %d", decodedRes.CreditsRemaining)
	}
}

func TestCodecDecodeFromBytes(t *testing.T) {
	codec := NewCodec()

	data, err := codec.EncodeToBytes(&HealthProbeAck{SentAt: 12345})
	if err != nil {
		t.Fatalf("EncodeToBytes failed: %v", err)
	}

	decoded, err := codec.DecodeFromBytes(data)
	if err != nil {
		t.Fatalf("DecodeFromBytes failed: %v", err)
	}

	ack, ok := decoded.(*HealthProbeAck)
	if !ok {
		t.Fatalf("Expected *HealthProbeAck, got %T", decoded)
	}
	if ack.SentAt != 12345 {
		t.Errorf("Expected SentAt 12345, got %d", ack.SentAt)
	}
}

func TestMessageTypeString(t *testing.T) {
	if MsgTranslationReq.String() != "TRANSLATION_REQ" {
		t.Errorf("unexpected name: %s", MsgTranslationReq.String())
	}
	if MessageType(0x7777).String() != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for unassigned type")
	}
	if ErrNoCredits.String() != "NO_CREDITS" {
		t.Errorf("unexpected name: %s", ErrNoCredits.String())
	}
}
