package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/platform/httpx"
	"github.com/incuhub/incuhub/internal/shared"
)

// SessionInvalidator drops cached identities when a session ends.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	resolver       identity.Source
	sessionManager *shared.SessionManager
	invalidator    SessionInvalidator
	auditor        *shared.AuditLogger
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver identity.Source, sessions *shared.SessionManager, invalidator SessionInvalidator, auditor *shared.AuditLogger) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		resolver:       resolver,
		sessionManager: sessions,
		invalidator:    invalidator,
		auditor:        auditor,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.loginInfo)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// loginInfo is the landing point for guard redirects of unauthenticated
// requests.
func (h *Handler) loginInfo(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": "sign in with POST /auth/login",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	acct, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(acct.ID, 10))
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, acct.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.audit(r.Context(), strconv.FormatInt(acct.ID, 10), shared.AuditActionLogin, sess.ID)

	ident, err := h.resolver.Resolve(r.Context())
	if err != nil {
		h.logger.Warn("resolve after login", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, ident)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		if h.invalidator != nil {
			if err := h.invalidator.Invalidate(r.Context(), sess.ID); err != nil {
				h.logger.Warn("invalidate identity cache", slog.Any("error", err))
			}
		}
		h.audit(r.Context(), sess.User(), shared.AuditActionLogout, sess.ID)
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// me returns the resolved identity for the current session.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ident, err := h.resolver.Resolve(r.Context())
	if err != nil {
		h.logger.Error("resolve identity", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if !ident.Resolved() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	httpx.JSON(w, http.StatusOK, ident)
}

func (h *Handler) audit(ctx context.Context, actorID, action, sessionID string) {
	if h.auditor == nil || actorID == "" {
		return
	}
	err := h.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "session",
		EntityID: sessionID,
	})
	if err != nil {
		h.logger.Warn("audit auth event", slog.Any("error", err))
	}
}
