// Package api exposes the fill engine over HTTP for browser-side callers.
// A client posts the scan it took of the page and receives a fill plan; the
// values land in form controls on the client, never here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/fill"
	"github.com/magicfill/magicfill/internal/forms"
	"github.com/magicfill/magicfill/internal/learning"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/resolver"
	"github.com/magicfill/magicfill/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps carries everything the handlers need. Mappings come from the
// mapping file, not the store, so they are injected alongside it.
type AppDeps struct {
	Store    *storage.Store
	Resolver *resolver.Resolver
	Capture  *learning.Capture
	Mappings map[string]profile.FieldMapping
	Token    string
	Logger   *zap.Logger
}

// NewAppHandler builds the authenticated application router.
func NewAppHandler(deps AppDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/fill", handleFill(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handlePutProfile(deps))
		r.Get("/answers", handleListAnswers(deps))
		r.Post("/answers", handleSaveAnswer(deps))
		r.Delete("/answers/{key}", handleDeleteAnswer(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleFill(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		scan, err := forms.DecodeScan(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid scan document: %v", err)
			return
		}
		scan.Classify()

		data, err := deps.Store.PersonalData(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}
		data.FieldMappings = deps.Mappings

		orch := fill.New(deps.Resolver, deps.Logger)
		result, err := orch.Run(r.Context(), scan.Fields, data, scan.Hostname, fill.CollectPlan)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "fill pass failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(fill.NewPlan(result))
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.Store.PersonalData(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(data)
	}
}

func handlePutProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var data profile.PersonalData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Store.SaveProfile(r.Context(), &data); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save profile: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleListAnswers(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := deps.Store.ListAnswers(r.Context(), r.URL.Query().Get("hostname"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list answers: %v", err)
			return
		}

		if answers == nil {
			answers = []storage.Answer{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(answers)
	}
}

// SaveAnswerRequest learns one committed value. Context is the field label as
// seen on the page; the stored key is derived from it.
type SaveAnswerRequest struct {
	Context  string `json:"context"`
	Value    string `json:"value"`
	Site     bool   `json:"site"`
	Hostname string `json:"hostname"`
}

func handleSaveAnswer(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req SaveAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		scope := learning.Scope{Site: req.Site, Hostname: req.Hostname}
		key, err := deps.Capture.OnFieldCommitted(r.Context(), req.Context, req.Value, scope)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to save answer: %v", err)
			return
		}
		if key == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "nothing to learn: empty value or context")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"key": key, "status": "saved"})
	}
}

func handleDeleteAnswer(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		hostname := r.URL.Query().Get("hostname")

		scope := learning.Scope{Site: hostname != "", Hostname: hostname}
		err := deps.Store.DeleteAnswer(r.Context(), key, scope)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "answer not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete answer: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
