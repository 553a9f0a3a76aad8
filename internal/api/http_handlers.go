package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	authapp "hero-server/internal/app/auth"
	"hero-server/internal/app/feed"
	herosvc "hero-server/internal/app/hero"
)

type Handler struct {
	logger      zerolog.Logger
	heroes      *herosvc.Service
	auth        *authapp.Service
	feed        *feed.Hub
	readyCheck  func(context.Context) error
	corsOrigin  string
	maxBodySize int64
	upgrader    websocket.Upgrader
}

type contextKey string

const subjectContextKey contextKey = "subject"

// NewHandler wires the HTTP boundary. readyCheck may be nil; hub may be nil
// when the live feed is not served.
func NewHandler(logger zerolog.Logger, heroes *herosvc.Service, auth *authapp.Service, hub *feed.Hub, readyCheck func(context.Context) error, corsOrigin string, maxBodySize int64) *Handler {
	h := &Handler{
		logger:      logger,
		heroes:      heroes,
		auth:        auth,
		feed:        hub,
		readyCheck:  readyCheck,
		corsOrigin:  corsOrigin,
		maxBodySize: maxBodySize,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(h.cors)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &requestError{status: http.StatusNotFound, msg: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &requestError{status: http.StatusMethodNotAllowed, msg: r.Method + " not allowed on " + r.URL.Path})
	})

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)

	r.Route("/v1/heroes", func(heroes chi.Router) {
		// The feed socket outlives any request timeout.
		heroes.Get("/feed", h.heroFeed)

		heroes.Group(func(rest chi.Router) {
			rest.Use(middleware.Timeout(20 * time.Second))
			rest.Get("/", h.listHeroes)
			rest.Get("/search", h.searchHeroes)
			rest.Get("/compare", h.compareHeroes)
			rest.Get("/{heroID}", h.getHero)

			rest.Group(func(writes chi.Router) {
				writes.Use(h.requireWriter)
				writes.Post("/", h.createHero)
				writes.Put("/{heroID}", h.updateHero)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("readiness check failed")
			h.writeError(w, r, &requestError{status: http.StatusServiceUnavailable, msg: "hero store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) listHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.heroes.FindAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, heroes)
}

func (h *Handler) getHero(w http.ResponseWriter, r *http.Request) {
	res, err := h.heroes.FindByID(r.Context(), chi.URLParam(r, "heroID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) searchHeroes(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "name")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	heroes, err := h.heroes.FindByName(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, heroes)
}

func (h *Handler) compareHeroes(w http.ResponseWriter, r *http.Request) {
	id1, err := requiredQuery(r, "id1")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id2, err := requiredQuery(r, "id2")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.heroes.Compare(r.Context(), id1, id2)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createHero(w http.ResponseWriter, r *http.Request) {
	var req herosvc.Request
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.heroes.Save(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info().Str("hero_id", res.ID).Str("subject", subjectFromCtx(r.Context())).Msg("hero created")
	w.Header().Set("Location", "/v1/heroes/"+res.ID)
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) updateHero(w http.ResponseWriter, r *http.Request) {
	var req herosvc.Request
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.heroes.Update(r.Context(), chi.URLParam(r, "heroID"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info().Str("hero_id", res.ID).Str("subject", subjectFromCtx(r.Context())).Msg("hero updated")
	writeJSON(w, http.StatusOK, res)
}

// requireWriter guards writes with a bearer token. With auth disabled every
// request passes.
func (h *Handler) requireWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		token, err := authapp.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		sub, err := h.auth.ParseToken(token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), subjectContextKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func subjectFromCtx(ctx context.Context) string {
	sub, _ := ctx.Value(subjectContextKey).(string)
	return sub
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origin := h.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.corsOrigin == "" || h.corsOrigin == "*" {
		return true
	}
	return strings.EqualFold(origin, h.corsOrigin)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, &requestError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return false
		}
		h.writeError(w, r, badRequest("invalid request body: %v", err))
		return false
	}
	if dec.More() {
		h.writeError(w, r, badRequest("invalid request body: trailing data"))
		return false
	}
	return true
}

func requiredQuery(r *http.Request, key string) (string, error) {
	q := r.URL.Query()
	if !q.Has(key) {
		return "", badRequest("required query parameter %q is missing", key)
	}
	return q.Get(key), nil
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}
