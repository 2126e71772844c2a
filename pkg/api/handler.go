package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cyberkunju/NREGA-sub000/pkg/kit"
)

// NewRouter returns an http.Handler with all lookup API routes.
func NewRouter(svc *Service) http.Handler {
	mux := http.NewServeMux()
	h := &handler{svc: svc}

	mux.HandleFunc("GET /v1/lookup", h.handleLookup)
	mux.HandleFunc("GET /v1/summary", h.handleSummary)
	mux.HandleFunc("GET /v1/collisions", h.handleCollisions)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", svc.metrics.Handler())

	return cors(mux)
}

type handler struct {
	svc *Service
}

// --- lookup ---

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := kit.WithTransport(r.Context(), "http")
	if id := r.Header.Get("X-Request-ID"); id != "" {
		ctx = kit.WithRequestID(ctx, id)
	}

	resp, err := h.svc.lookup(ctx, &lookupReq{State: strings.TrimSpace(q.Get("state")), District: strings.TrimSpace(q.Get("district"))})
	if err != nil {
		if errors.Is(err, ErrMissingName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if resp.(lookupResponse).Status == StatusUnknown {
		code = http.StatusNotFound
	}
	writeJSON(w, code, resp)
}

// --- summary ---

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.summary(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- collisions ---

func (h *handler) handleCollisions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.collisions(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Artifact string `json:"artifact"`
	SHA256   string `json:"sha256"`
	Mapped   int    `json:"mapped"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s := h.svc.store
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Artifact: s.Path(),
		SHA256:   s.Hash(),
		Mapped:   s.Summary().Mapped,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors is a simple CORS middleware for browser-based clients such as the
// map renderer.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
