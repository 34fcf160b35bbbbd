package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestNewElevenLabsSpeech(t *testing.T) {
	_, err := NewElevenLabsSpeech(ElevenLabsConfig{}, quietLogger())
	if err == nil {
		t.Error("expected error when API key is not set")
	}

	speech, err := NewElevenLabsSpeech(ElevenLabsConfig{APIKey: "test-api-key"}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create speech client: %v", err)
	}
	if speech.voiceID != defaultVoiceID {
		t.Errorf("expected default voice ID %q, got %q", defaultVoiceID, speech.voiceID)
	}
	if speech.modelID != defaultTTSModelID {
		t.Errorf("expected default model ID %q, got %q", defaultTTSModelID, speech.modelID)
	}
}

func TestNewElevenLabsSpeech_InvalidSettings(t *testing.T) {
	_, err := NewElevenLabsSpeech(ElevenLabsConfig{APIKey: "k", Stability: 1.5}, quietLogger())
	if err == nil {
		t.Error("expected error for out-of-range stability")
	}

	_, err = NewElevenLabsSpeech(ElevenLabsConfig{APIKey: "k", Clarity: -0.1}, quietLogger())
	if err == nil {
		t.Error("expected error for out-of-range clarity")
	}
}

func TestElevenLabsSpeech_Synthesize(t *testing.T) {
	wantAudio := []byte{0xFF, 0xF3, 0x01, 0x02}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/test-voice" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-api-key" {
			t.Errorf("missing api key header, got %q", r.Header.Get("xi-api-key"))
		}

		var req elevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Text != "hola" {
			t.Errorf("expected text 'hola', got %q", req.Text)
		}
		if req.LanguageCode != "es" {
			t.Errorf("expected language code 'es', got %q", req.LanguageCode)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(wantAudio)
	}))
	defer server.Close()

	speech, err := NewElevenLabsSpeech(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		VoiceID:    "test-voice",
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create speech client: %v", err)
	}

	audio, err := speech.Synthesize(context.Background(), "hola", "es")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(audio) != len(wantAudio) {
		t.Errorf("expected %d audio bytes, got %d", len(wantAudio), len(audio))
	}
}

func TestElevenLabsSpeech_SynthesizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	speech, _ := NewElevenLabsSpeech(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
	}, quietLogger())

	_, err := speech.Synthesize(context.Background(), "hola", "es")
	if err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestElevenLabsSpeech_SynthesizeEmptyText(t *testing.T) {
	speech, _ := NewElevenLabsSpeech(ElevenLabsConfig{APIKey: "test-api-key"}, quietLogger())

	if _, err := speech.Synthesize(context.Background(), "", "es"); err == nil {
		t.Error("expected error for empty text")
	}
	if _, err := speech.Synthesize(context.Background(), "   ", "es"); err == nil {
		t.Error("expected error for whitespace-only text")
	}
}
