package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agreewise/agreewise/internal/config"
	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
	"github.com/agreewise/agreewise/internal/observability/metrics"
)

const serviceName = "agreewise-api"

// multipart overhead allowed on top of the page byte limit
const uploadSlack = 1 << 20

type Services struct {
	Pages     ports.PageManager
	Analysis  ports.AnalysisService
	Narration ports.NarrationService
	Questions ports.QuestionComposer
	UIStrings ports.UIStringService
	Loader    ports.PageLoader
	Metrics   *metrics.HTTPServerMetrics
	Logger    *slog.Logger
}

type Router struct {
	cfg config.Config
	svc Services
}

func NewRouter(cfg config.Config, svc Services) *Router {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	return &Router{cfg: cfg, svc: svc}
}

type errorResponse struct {
	Error string `json:"error"`
}

type pagesResponse struct {
	Pages []domain.PageInfo `json:"pages"`
	Error string            `json:"error,omitempty"`
}

type languageRequest struct {
	Language         string `json:"language"`
	DocumentLanguage string `json:"document_language"`
}

type uiStringsResponse struct {
	Language         string             `json:"language"`
	Strings          domain.StringTable `json:"strings"`
	TranslationError string             `json:"translation_error,omitempty"`
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.svc.Metrics != nil {
		mux.Handle("/metrics", rt.svc.Metrics.Handler())
	}
	mux.HandleFunc("/v1/languages", rt.languages)
	mux.HandleFunc("/v1/pages", rt.pages)
	mux.HandleFunc("/v1/pages/reorder", rt.reorderPages)
	mux.HandleFunc("/v1/pages/", rt.removePage)
	mux.HandleFunc("/v1/submissions", rt.submit)
	mux.HandleFunc("/v1/progress", rt.progress)
	mux.HandleFunc("/v1/analysis", rt.analysis)
	mux.HandleFunc("/v1/ui-strings", rt.uiStrings)
	mux.HandleFunc("/v1/narration", rt.narration)
	mux.HandleFunc("/v1/questions/", rt.composeQuestion)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIQueueWait)
	var onLimited func(string)
	if rt.svc.Metrics != nil {
		onLimited = func(path string) { rt.svc.Metrics.RecordRateLimited(serviceName, path) }
		handler = rt.svc.Metrics.Middleware(serviceName, handler)
	}
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onLimited)
	handler = accessLogMiddleware(rt.svc.Logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) languages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": domain.Languages()})
}

func (rt *Router) pages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, pagesResponse{Pages: rt.svc.Pages.Pages()})
	case http.MethodDelete:
		rt.svc.Pages.ClearPages()
		writeJSON(w, http.StatusOK, pagesResponse{Pages: rt.svc.Pages.Pages()})
	case http.MethodPost:
		rt.addPages(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) addPages(w http.ResponseWriter, r *http.Request) {
	maxPages := rt.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = domain.DefaultMaxPages
	}
	maxBytes := rt.cfg.MaxPageBytes
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxPageBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxPages)*maxBytes+uploadSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'files' is required"})
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'files' is required"})
		return
	}

	pages := make([]domain.Page, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("cannot read %s", fh.Filename)})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("cannot read %s", fh.Filename)})
			return
		}
		page, err := rt.svc.Loader.Load(r.Context(), fh.Filename, data)
		if err != nil {
			writeError(w, err)
			return
		}
		pages = append(pages, page)
	}

	infos, err := rt.svc.Pages.AddPages(pages...)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), pagesResponse{Pages: infos, Error: domain.UserMessage(err, "")})
		return
	}
	writeJSON(w, http.StatusCreated, pagesResponse{Pages: infos})
}

func (rt *Router) removePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/pages/"), "/")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page index must be an integer"})
		return
	}
	infos, err := rt.svc.Pages.RemovePage(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagesResponse{Pages: infos})
}

func (rt *Router) reorderPages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == nil || req.To == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from and to are required"})
		return
	}
	writeJSON(w, http.StatusOK, pagesResponse{Pages: rt.svc.Pages.ReorderPages(*req.From, *req.To)})
}

func (rt *Router) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	req, ok := decodeLanguageRequest(w, r)
	if !ok {
		return
	}
	lang := req.DocumentLanguage
	if lang == "" {
		lang = req.Language
	}
	state, err := rt.svc.Analysis.Submit(r.Context(), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, state)
}

func (rt *Router) progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, rt.svc.Analysis.Progress())
}

func (rt *Router) analysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	localized, err := rt.svc.Analysis.Analysis(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, localized)
}

func (rt *Router) uiStrings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lang, err := domain.ValidateLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	table, err := rt.svc.UIStrings.Table(r.Context(), lang)
	resp := uiStringsResponse{Language: lang, Strings: table}
	if err != nil {
		resp.TranslationError = domain.UserMessage(err, "Translation failed")
	} else {
		resp.TranslationError = rt.svc.UIStrings.FailureReason(lang)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) narration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rt.svc.Narration.NarrationStatus())
	case http.MethodPost:
		req, ok := decodeLanguageRequest(w, r)
		if !ok {
			return
		}
		outcome, err := rt.svc.Narration.Narrate(r.Context(), req.Language)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"outcome": outcome,
			"status":  rt.svc.Narration.NarrationStatus(),
		})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) composeQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/questions/")
	raw, suffix, found := strings.Cut(rest, "/")
	if !found || suffix != "message" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question index must be an integer"})
		return
	}
	req, ok := decodeLanguageRequest(w, r)
	if !ok {
		return
	}
	msg, err := rt.svc.Questions.ComposeQuestion(r.Context(), index, req.Language)
	if err != nil && msg == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		rt.svc.Logger.Warn("compose_partial", "question_index", index, "error", err)
		if msg.Error == "" {
			msg.Error = domain.UserMessage(err, "")
		}
	}
	writeJSON(w, http.StatusOK, msg)
}

// decodeLanguageRequest accepts an empty body as the source language.
func decodeLanguageRequest(w http.ResponseWriter, r *http.Request) (languageRequest, bool) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return req, false
	}
	return req, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
