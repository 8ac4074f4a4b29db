package openaispeech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agreewise/agreewise/internal/core/domain"
)

const (
	DefaultModel = "gpt-4o-mini-tts"
	DefaultVoice = "alloy"
)

type Config struct {
	APIKey     string
	Model      string
	Voice      string
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string
	HTTPClient *http.Client
}

// Synthesizer produces narration audio directly from the OpenAI speech API.
type Synthesizer struct {
	model  string
	voice  string
	client openai.Client
}

func New(cfg Config) *Synthesizer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Synthesizer{
		model:  cfg.Model,
		voice:  cfg.Voice,
		client: openai.NewClient(opts...),
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) (*domain.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "synthesize", errors.New("text is required"))
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(1.0),
	}
	if supportsInstructions(s.model) {
		params.Instructions = openai.String(instructionsFor(language))
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransport, "synthesize", fmt.Errorf("read openai audio: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "synthesize", errors.New("empty audio response"))
	}
	return &domain.Audio{Data: data, ContentType: "audio/mpeg"}, nil
}

func instructionsFor(language string) string {
	name := "English"
	if lang, ok := domain.LookupLanguage(strings.SplitN(language, "-", 2)[0]); ok {
		name = lang.Name
	}
	return fmt.Sprintf("Speak in %s with a calm, clear tone, as if explaining a contract to a friend.", name)
}

func supportsInstructions(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-4o-mini-tts")
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError {
			return domain.WrapError(domain.ErrTransport, "synthesize",
				domain.WrapError(domain.ErrTemporary, "synthesize", fmt.Errorf("openai speech status %d", apiErr.StatusCode)))
		}
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = fmt.Sprintf("speech request rejected (status %d)", apiErr.StatusCode)
		}
		return &domain.ServiceError{Operation: "synthesize", StatusCode: apiErr.StatusCode, Message: msg}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.ErrTransport, "synthesize", err)
}
