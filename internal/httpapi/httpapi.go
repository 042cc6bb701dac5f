// Package httpapi mounts the HTTP surface of the realtime server: the
// websocket endpoint, health and metrics, and the token refresh flow.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/flyingbingbong/jubsok-backend/internal/auth"
	"github.com/flyingbingbong/jubsok-backend/internal/session"
	"github.com/flyingbingbong/jubsok-backend/internal/store"
)

const refreshPrefix = "auth/validateRefreshToken"

// API wires the HTTP routes around the gateway and the auth collaborators.
type API struct {
	tokens  *auth.Tokens
	refresh session.RefreshTokens
	ws      http.HandlerFunc
	log     *zap.Logger
}

// New builds the API surface.
func New(tokens *auth.Tokens, refresh session.RefreshTokens, ws http.HandlerFunc, log *zap.Logger) *API {
	return &API{tokens: tokens, refresh: refresh, ws: ws, log: log}
}

// Routes assembles the router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", a.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", a.ws)
	r.Post("/auth/token", a.refreshAccessToken)
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// refreshAccessToken exchanges a refresh token for a fresh access token. The
// caller supplies the provider id it believes the token belongs to; a
// mismatch is treated the same as an unknown token.
func (a *API) refreshAccessToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
		ID           string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RefreshToken == "" || body.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": refreshPrefix + "/REFRESH_TOKEN_NOT_EXIST",
		})
		return
	}

	providerID, err := a.refresh.Lookup(r.Context(), body.RefreshToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Error("refresh token lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": refreshPrefix + "/INTERNAL_ERROR",
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) || providerID != body.ID {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"message": refreshPrefix + "/USER_NOT_FOUND",
		})
		return
	}

	accessToken, err := a.tokens.Issue(providerID, time.Now())
	if err != nil {
		a.log.Error("issue access token failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": refreshPrefix + "/INTERNAL_ERROR",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
