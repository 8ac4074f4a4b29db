package openaispeech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agreewise/agreewise/internal/core/domain"
)

func TestSynthesizeSendsSpeechRequest(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	s := New(Config{APIKey: "test-key", BaseURL: server.URL, MaxRetries: 1})
	audio, err := s.Synthesize(context.Background(), "Hello there.", "zh-CN")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio.Data) != "mp3-bytes" || audio.ContentType != "audio/mpeg" {
		t.Fatalf("unexpected audio %+v", audio)
	}
	if got, _ := payload["voice"].(string); got != DefaultVoice {
		t.Fatalf("expected default voice, got %q", got)
	}
	if got, _ := payload["instructions"].(string); !strings.Contains(got, "Chinese") {
		t.Fatalf("expected language in instructions, got %q", got)
	}
}

func TestSynthesizeMapsClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Input too long","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := New(Config{APIKey: "k", BaseURL: server.URL, MaxRetries: 1}).Synthesize(context.Background(), "hi", "en")
	if !domain.IsKind(err, domain.ErrServiceFailure) {
		t.Fatalf("expected service failure, got %v", err)
	}
	if got := domain.UserMessage(err, ""); got != "Input too long" {
		t.Fatalf("expected api message, got %q", got)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	_, err := New(Config{APIKey: "k"}).Synthesize(context.Background(), "   ", "en")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
