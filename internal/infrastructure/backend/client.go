package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "http://localhost:5001"
	DefaultTimeout = 120 * time.Second

	maxAudioBytes = 32 * 1024 * 1024
)

const (
	opAnalyze   = "backend_analyze"
	opTranslate = "backend_translate"
	opAudio     = "backend_generate_audio"
	opQuestion  = "backend_question_message"
)

type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	// Executor adds retry and circuit breaking. Analyze is never retried.
	Executor *resilience.Executor
	Logger   *slog.Logger
}

// Client talks to the analysis backend: analyze, translate, generate-audio and
// generate-question-message.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

func New(baseURL string, opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		executor:   opts.Executor,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type analyzeResponse struct {
	ExtractedText string                     `json:"extracted_text"`
	TotalPages    int                        `json:"total_pages"`
	Pages         []domain.PageReport        `json:"pages"`
	Metadata      map[string]json.RawMessage `json:"metadata"`
	Analysis      map[string]json.RawMessage `json:"analysis"`
}

func (c *Client) Analyze(ctx context.Context, pages []domain.Page, documentLanguage string) (*domain.AnalysisResponse, error) {
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("no pages to analyze"))
	}
	fields := map[string]string{
		"document_language":    documentLanguage,
		"explanation_language": domain.SourceLanguage,
	}

	var out *domain.AnalysisResponse
	err := c.run(ctx, opAnalyze, resilience.NoRetry(classifyBackendError), func(ctx context.Context) error {
		resp, err := c.postMultipart(ctx, "/api/analyze", pages, fields, "analyze")
		if err != nil {
			return err
		}
		var payload analyzeResponse
		if err := decodeJSON(resp, &payload, "analyze"); err != nil {
			return err
		}
		result, err := englishAnalysis(payload.Analysis)
		if err != nil {
			return err
		}
		out = &domain.AnalysisResponse{
			ExtractedText: payload.ExtractedText,
			TotalPages:    payload.TotalPages,
			Pages:         payload.Pages,
			Metadata:      payload.Metadata,
			Analysis:      result,
		}
		return nil
	})
	if err != nil {
		return nil, wrapFailure("analyze", err)
	}
	return out, nil
}

// englishAnalysis picks the English tree, accepting either "en" or "english".
func englishAnalysis(trees map[string]json.RawMessage) (domain.AnalysisResult, error) {
	raw, ok := trees[domain.SourceLanguage]
	if !ok {
		raw, ok = trees["english"]
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return domain.AnalysisResult{}, domain.WrapError(domain.ErrMalformedResponse, "analyze",
			errors.New("response has no english analysis"))
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.AnalysisResult{}, domain.WrapError(domain.ErrMalformedResponse, "analyze",
			fmt.Errorf("decode english analysis: %v", err))
	}
	return result, nil
}

type translateRequest struct {
	Content      any    `json:"content"`
	SourceLocale string `json:"sourceLocale"`
	TargetLocale string `json:"targetLocale"`
}

type translateResponse struct {
	Translated json.RawMessage `json:"translated"`
}

func (c *Client) Translate(ctx context.Context, content any, sourceLocale, targetLocale string) (json.RawMessage, error) {
	req := translateRequest{Content: content, SourceLocale: sourceLocale, TargetLocale: targetLocale}

	var out json.RawMessage
	err := c.run(ctx, opTranslate, resilience.Policy{Classifier: classifyBackendError}, func(ctx context.Context) error {
		resp, err := c.postJSON(ctx, "/api/translate", req, "translate")
		if err != nil {
			return err
		}
		var payload translateResponse
		if err := decodeJSON(resp, &payload, "translate"); err != nil {
			return err
		}
		out, err = unwrapTranslated(payload.Translated)
		return err
	})
	if err != nil {
		return nil, wrapFailure("translate", err)
	}
	return out, nil
}

// unwrapTranslated returns translated.data, or translated itself when data is absent.
func unwrapTranslated(translated json.RawMessage) (json.RawMessage, error) {
	if len(translated) == 0 || string(translated) == "null" {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "translate", errors.New("response has no translated content"))
	}
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(translated, &wrapper); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedResponse, "translate", fmt.Errorf("decode translated content: %v", err))
	}
	if len(wrapper.Data) > 0 && string(wrapper.Data) != "null" {
		return wrapper.Data, nil
	}
	return translated, nil
}

func (c *Client) Synthesize(ctx context.Context, text, language string) (*domain.Audio, error) {
	req := map[string]string{"text": text, "language": language}

	var out *domain.Audio
	err := c.run(ctx, opAudio, resilience.Policy{Classifier: classifyBackendError}, func(ctx context.Context) error {
		resp, err := c.postJSON(ctx, "/api/generate-audio", req, "generate audio")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		contentType := resp.Header.Get("Content-Type")
		if strings.HasPrefix(contentType, "application/json") {
			var env envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				return domain.WrapError(domain.ErrMalformedResponse, "generate audio", fmt.Errorf("decode response: %v", err))
			}
			return &domain.ServiceError{Operation: "generate audio", StatusCode: resp.StatusCode, Message: envMessage(env)}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		if len(data) == 0 {
			return domain.WrapError(domain.ErrMalformedResponse, "generate audio", errors.New("empty audio stream"))
		}
		if contentType == "" {
			contentType = "audio/mpeg"
		}
		out = &domain.Audio{Data: data, ContentType: contentType}
		return nil
	})
	if err != nil {
		return nil, wrapFailure("generate audio", err)
	}
	return out, nil
}

type questionRequest struct {
	Question     string `json:"question"`
	DocumentType string `json:"document_type"`
	Language     string `json:"language"`
}

func (c *Client) GenerateQuestionMessage(ctx context.Context, question, documentType, language string) (string, error) {
	req := questionRequest{Question: question, DocumentType: documentType, Language: language}

	var message string
	err := c.run(ctx, opQuestion, resilience.NoRetry(classifyBackendError), func(ctx context.Context) error {
		resp, err := c.postJSON(ctx, "/api/generate-question-message", req, "generate question message")
		if err != nil {
			return err
		}
		var payload struct {
			Message string `json:"message"`
		}
		if err := decodeJSON(resp, &payload, "generate question message"); err != nil {
			return err
		}
		message = strings.TrimSpace(payload.Message)
		return nil
	})
	if err != nil {
		return "", wrapFailure("generate question message", err)
	}
	return message, nil
}

func (c *Client) run(ctx context.Context, operation string, policy resilience.Policy, fn func(context.Context) error) error {
	started := time.Now()
	var err error
	if c.executor == nil {
		err = fn(ctx)
	} else {
		err = c.executor.Run(ctx, operation, policy, fn)
	}
	c.logger.Debug("backend_call", "operation", operation, "duration_ms", time.Since(started).Milliseconds(), "error", err)
	return err
}
