package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/authflow"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/pkg/validate"
)

// AuthHandler serves the login and registration forms. Flow state lives in
// the repository under the caller's session cookie.
type AuthHandler struct {
	repo     repository.FlowRepository
	api      authflow.API
	routes   authflow.Routes
	observer authflow.Observer
	validate *validate.Validator
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler. observer may be nil.
func NewAuthHandler(repo repository.FlowRepository, api authflow.API, routes authflow.Routes, observer authflow.Observer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		repo:     repo,
		api:      api,
		routes:   routes,
		observer: observer,
		validate: validate.New(),
		logger:   logger,
	}
}

// StateResponse is what the view layer needs to render the current step.
type StateResponse struct {
	Flow  string         `json:"flow"`
	Step  authflow.State `json:"step"`
	Name  string         `json:"name,omitempty"`
	Email string         `json:"email,omitempty"`
}

// GetState handles GET /api/auth/state
func (h *AuthHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)

	state, err := h.load(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load flow session", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, StateResponse{
		Flow:  state.Flow,
		Step:  state.Step,
		Name:  state.Name,
		Email: state.Email,
	}, h.logger)
}

// LoginEmail handles POST /api/auth/login/email
func (h *AuthHandler) LoginEmail(w http.ResponseWriter, r *http.Request) {
	var req models.LoginEmailRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitLoginEmail(ctx, req.Email, req.Next)
	})
}

// LoginPassword handles POST /api/auth/login/password
func (h *AuthHandler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	var req models.LoginPasswordRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitLoginPassword(ctx, req.Password)
	})
}

// RegisterEmail handles POST /api/auth/register/email
func (h *AuthHandler) RegisterEmail(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterEmailRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitRegisterEmail(ctx, req.Email, req.Recaptcha, req.Next)
	})
}

// RegisterConfirm handles POST /api/auth/register/confirm. The body carries
// the code and partial token from the emailed link.
func (h *AuthHandler) RegisterConfirm(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterConfirmRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitRegisterConfirm(ctx, req.VerificationCode, req.PartialToken)
	})
}

// RegisterDetails handles POST /api/auth/register/details
func (h *AuthHandler) RegisterDetails(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDetailsRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitRegisterDetails(ctx, req)
	})
}

// RegisterExtra handles POST /api/auth/register/extra
func (h *AuthHandler) RegisterExtra(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterExtraRequest
	if !bindJSON(w, r, h.validate, &req, h.logger) {
		return
	}
	h.submit(w, r, func(ctx context.Context, c *authflow.Controller) (authflow.Outcome, error) {
		return c.SubmitRegisterExtra(ctx, req)
	})
}

func (h *AuthHandler) load(ctx context.Context, id string) (authflow.FlowState, error) {
	state, err := h.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return authflow.NewLoginState(), nil
	}
	return state, err
}

// submit runs one step for the caller's session under the session lock and
// persists the resulting state.
func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, step func(context.Context, *authflow.Controller) (authflow.Outcome, error)) {
	ctx := r.Context()
	id := sessionID(w, r)

	release, err := h.repo.Lock(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocked) {
			WriteError(w, http.StatusConflict, "A submission is already in progress", h.logger)
			return
		}
		h.logger.Error("failed to lock flow session", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	defer release()

	state, err := h.load(ctx, id)
	if err != nil {
		h.logger.Error("failed to load flow session", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	ctrl := authflow.NewController(&cookieRelay{api: h.api, w: w}, h.routes, state, h.logger)
	if h.observer != nil {
		ctrl.WithObserver(h.observer)
	}

	out, err := step(ctx, ctrl)
	switch {
	case err == nil, errors.Is(err, authflow.ErrUnknownState):
		// An unknown state still yields a navigation to the error page.
	case errors.Is(err, authflow.ErrMissingPartialToken):
		WriteError(w, http.StatusBadRequest, "Your session has expired. Please start again.", h.logger)
		return
	case errors.Is(err, authflow.ErrStepOutOfOrder):
		WriteError(w, http.StatusBadRequest, "This step is not available right now. Please start again.", h.logger)
		return
	case errors.Is(err, authflow.ErrSubmitInProgress):
		WriteError(w, http.StatusConflict, "A submission is already in progress", h.logger)
		return
	default:
		writeUpstreamError(w, r, err, h.logger)
		return
	}

	next := ctrl.State()
	if next.Step.Terminal() {
		err = h.repo.Delete(ctx, id)
	} else {
		err = h.repo.Save(ctx, id, next)
	}
	if err != nil {
		h.logger.Error("failed to store flow session", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	status := http.StatusOK
	if len(out.FieldErrors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, out, h.logger)
}
