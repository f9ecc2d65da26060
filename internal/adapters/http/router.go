package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docscout/internal/core/domain"
	"github.com/kirillkom/docscout/internal/core/ports"
	"github.com/kirillkom/docscout/internal/observability/metrics"
)

type Router struct {
	questions ports.QuestionService
	passages  ports.PassageReader
	metrics   *metrics.HTTPServerMetrics
	service   string
}

func NewRouter(questions ports.QuestionService, passages ports.PassageReader, m *metrics.HTTPServerMetrics, service string) *Router {
	return &Router{
		questions: questions,
		passages:  passages,
		metrics:   m,
		service:   service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/passages/", rt.getPassageByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type questionPayload struct {
	Query     string `json:"query"`
	CorpusID  string `json:"corpus_id"`
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit"`
}

func (rt *Router) getPassageByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/passages/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "passage id is required"})
		return
	}

	passage, err := rt.passages.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, passage)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	rt.handleQuestion(w, r, "search", rt.questions.Search)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	rt.handleQuestion(w, r, "ask", rt.questions.Ask)
}

func (rt *Router) handleQuestion(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	handle func(ctx context.Context, req ports.QuestionRequest) (*domain.Outcome, error),
) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var payload questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	outcome, err := handle(r.Context(), ports.QuestionRequest{
		Query:     payload.Query,
		CorpusID:  payload.CorpusID,
		SessionID: payload.SessionID,
		Limit:     payload.Limit,
	})
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if status >= 500 {
			slog.Error("question_failed",
				"request_id", requestIDFromContext(r.Context()),
				"endpoint", endpoint,
				"error", err,
			)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(
			rt.service,
			endpoint,
			string(outcome.Tier),
			outcome.Retried,
			len(outcome.Attempts),
			len(outcome.Results),
			outcome.Confidence.Score,
			time.Since(start),
		)
	}
	writeJSON(w, http.StatusOK, outcome)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
