package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/agreewise/agreewise/internal/core/domain"
)

const maxErrorBodyBytes = 64 * 1024

// envelope is the success/error wrapper every JSON endpoint shares.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, operation string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation)
}

func (c *Client) postMultipart(ctx context.Context, path string, pages []domain.Page, fields map[string]string, operation string) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, page := range pages {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, page.Name))
		contentType := page.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create %s file part: %w", operation, err)
		}
		if _, err := part.Write(page.Data); err != nil {
			return nil, fmt.Errorf("write %s file part: %w", operation, err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write %s field %s: %w", operation, name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close %s form: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, operation)
}

// do sends req and converts non-2xx responses into errors. The caller owns the
// body of a successful response.
func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s request: %w", operation, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, formatBackendHTTPError(operation, resp)
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, out any, operation string) error {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.WrapError(domain.ErrMalformedResponse, operation, fmt.Errorf("decode response: %v", err))
	}
	if env.Success != nil && !*env.Success {
		return &domain.ServiceError{Operation: operation, StatusCode: resp.StatusCode, Message: envMessage(env)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.WrapError(domain.ErrMalformedResponse, operation, fmt.Errorf("decode response: %v", err))
	}
	return nil
}

// formatBackendHTTPError prefers the structured {error} body when present.
func formatBackendHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		if msg := envMessage(env); msg != "" {
			return &domain.ServiceError{Operation: operation, StatusCode: resp.StatusCode, Message: msg}
		}
	}
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       truncate(strings.TrimSpace(string(body)), 512),
	}
}

func envMessage(env envelope) string {
	if msg := strings.TrimSpace(env.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(env.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
