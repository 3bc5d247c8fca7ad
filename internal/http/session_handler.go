package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/gate"
)

type SessionHandler struct {
	session SessionService
	timeout time.Duration
}

func NewSessionHandler(session SessionService, timeout time.Duration) *SessionHandler {
	return &SessionHandler{session: session, timeout: timeout}
}

// LoginRequestDTO carries either credentials or an already issued token.
type LoginRequestDTO struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Token    string           `json:"token"`
	User     *domain.Identity `json:"user"`
}

type SessionResponseDTO struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
	Next          string           `json:"next,omitempty"`
}

func (h *SessionHandler) state(next string) SessionResponseDTO {
	resp := SessionResponseDTO{Authenticated: h.session.IsAuthenticated(), Next: next}
	if resp.Authenticated {
		id := h.session.Identity()
		resp.User = &id
	}
	return resp
}

// GET /session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state(""))
}

// GET /login
func (h *SessionHandler) LoginView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state(gate.NextPath(r.URL.Query().Get("next"))))
}

// POST /login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var err error
	switch {
	case req.Token != "" && req.User != nil:
		err = h.session.Login(ctx, req.Token, *req.User)
	case req.Email != "" && req.Password != "":
		err = h.session.SignIn(ctx, req.Email, req.Password)
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.state(gate.NextPath(r.URL.Query().Get("next"))))
}

type ForgotPasswordRequestDTO struct {
	Email string `json:"email"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// POST /forgot-password
func (h *SessionHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ForgotPasswordRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.session.ForgotPassword(ctx, req.Email); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, MessageResponseDTO{Message: "Password reset email sent! Please check your inbox."})
}

// POST /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
