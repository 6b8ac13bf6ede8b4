package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

var (
	// ErrMissingPartialToken means a step that continues a flow was submitted
	// before the previous step handed out its token.
	ErrMissingPartialToken = errors.New("partial token required for this step")
	// ErrStepOutOfOrder means a step that continues a flow was submitted while
	// the flow is on a different step, so the stored token belongs elsewhere.
	ErrStepOutOfOrder = errors.New("step submitted out of order")
	// ErrSubmitInProgress means the form already has a request in flight.
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// API is the subset of the upstream client the controller calls.
type API interface {
	LoginEmail(ctx context.Context, req models.LoginEmailRequest) (*models.AuthResponse, error)
	LoginPassword(ctx context.Context, req models.LoginPasswordRequest) (*models.AuthResponse, error)
	RegisterEmail(ctx context.Context, req models.RegisterEmailRequest) (*models.AuthResponse, error)
	RegisterConfirm(ctx context.Context, req models.RegisterConfirmRequest) (*models.AuthResponse, error)
	RegisterDetails(ctx context.Context, req models.RegisterDetailsRequest) (*models.AuthResponse, error)
	RegisterExtra(ctx context.Context, req models.RegisterExtraRequest) (*models.AuthResponse, error)
}

// Observer is notified after every decided step.
type Observer interface {
	ObserveAuthStep(submitted State, out Outcome)
}

// Controller walks one user through the auth flow. It is safe for concurrent
// use, but only one submission runs at a time.
type Controller struct {
	api      API
	routes   Routes
	logger   *slog.Logger
	observer Observer

	mu         sync.RWMutex
	state      FlowState
	submitting atomic.Bool
}

// NewController resumes a flow from state. Pass NewLoginState() for a fresh one.
func NewController(api API, routes Routes, state FlowState, logger *slog.Logger) *Controller {
	if state.Step == "" {
		state = NewLoginState()
	}
	return &Controller{
		api:    api,
		routes: routes,
		logger: logger,
		state:  state,
	}
}

// WithObserver attaches an observer and returns the controller.
func (c *Controller) WithObserver(o Observer) *Controller {
	c.observer = o
	return c
}

// State returns a copy of the current flow state.
func (c *Controller) State() FlowState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	return c.submitting.Load()
}

// SubmitLoginEmail starts a login with the user's email.
func (c *Controller) SubmitLoginEmail(ctx context.Context, email, next string) (Outcome, error) {
	return c.submit(ctx, StateLoginEmail, false, func(s *FlowState) {
		s.Flow = FlowLogin
		s.Email = email
	}, func(_ string) (*models.AuthResponse, error) {
		return c.api.LoginEmail(ctx, models.LoginEmailRequest{Email: email, Next: next, Flow: FlowLogin})
	})
}

// SubmitLoginPassword continues a login with the password.
func (c *Controller) SubmitLoginPassword(ctx context.Context, password string) (Outcome, error) {
	return c.submit(ctx, StateLoginPassword, true, nil, func(token string) (*models.AuthResponse, error) {
		return c.api.LoginPassword(ctx, models.LoginPasswordRequest{
			Password:     password,
			PartialToken: token,
			Flow:         FlowLogin,
		})
	})
}

// SubmitRegisterEmail starts a registration with the user's email.
func (c *Controller) SubmitRegisterEmail(ctx context.Context, email, recaptcha, next string) (Outcome, error) {
	return c.submit(ctx, StateRegisterEmail, false, func(s *FlowState) {
		s.Flow = FlowRegister
		s.Email = email
	}, func(_ string) (*models.AuthResponse, error) {
		return c.api.RegisterEmail(ctx, models.RegisterEmailRequest{
			Email:     email,
			Recaptcha: recaptcha,
			Next:      next,
			Flow:      FlowRegister,
		})
	})
}

// SubmitRegisterConfirm verifies the code from the confirmation email. The
// partial token arrives with the emailed link rather than a previous response.
func (c *Controller) SubmitRegisterConfirm(ctx context.Context, code, partialToken string) (Outcome, error) {
	return c.submit(ctx, StateRegisterConfirm, true, func(s *FlowState) {
		s.Flow = FlowRegister
		s.Step = StateRegisterConfirm
		if partialToken != "" {
			s.PartialToken = partialToken
		}
	}, func(token string) (*models.AuthResponse, error) {
		return c.api.RegisterConfirm(ctx, models.RegisterConfirmRequest{
			VerificationCode: code,
			PartialToken:     token,
			Flow:             FlowRegister,
		})
	})
}

// SubmitRegisterDetails sends name, password and legal address.
func (c *Controller) SubmitRegisterDetails(ctx context.Context, req models.RegisterDetailsRequest) (Outcome, error) {
	return c.submit(ctx, StateRegisterDetails, true, nil, func(token string) (*models.AuthResponse, error) {
		req.Flow = FlowRegister
		req.PartialToken = token
		return c.api.RegisterDetails(ctx, req)
	})
}

// SubmitRegisterExtra sends the optional profile details.
func (c *Controller) SubmitRegisterExtra(ctx context.Context, req models.RegisterExtraRequest) (Outcome, error) {
	return c.submit(ctx, StateRegisterExtra, true, nil, func(token string) (*models.AuthResponse, error) {
		req.Flow = FlowRegister
		req.PartialToken = token
		return c.api.RegisterExtra(ctx, req)
	})
}

// submit runs one step under the single-flight guard. prepare adjusts the
// state before the call and is only committed when the call succeeds; call
// receives the partial token to send.
func (c *Controller) submit(
	ctx context.Context,
	step State,
	needsToken bool,
	prepare func(*FlowState),
	call func(token string) (*models.AuthResponse, error),
) (Outcome, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmitInProgress
	}
	defer c.submitting.Store(false)

	cur := c.State()
	if prepare != nil {
		prepare(&cur)
	}

	if needsToken && cur.Step != step {
		return Outcome{Step: cur.Step}, fmt.Errorf("%w: %s while on %s", ErrStepOutOfOrder, step, cur.Step)
	}
	if needsToken && cur.PartialToken == "" {
		return Outcome{Step: cur.Step}, fmt.Errorf("%w: %s", ErrMissingPartialToken, step)
	}

	resp, err := call(cur.PartialToken)
	if err != nil {
		c.logger.WarnContext(ctx, "auth step failed", "step", step, "error", err)
		return Outcome{Step: c.State().Step}, fmt.Errorf("submit %s: %w", step, err)
	}

	next, out, err := Decide(cur, *resp, c.routes)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.ObserveAuthStep(step, out)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "auth step returned unknown state", "step", step, "state", resp.State)
		return out, err
	}

	c.logger.DebugContext(ctx, "auth step decided",
		"step", step,
		"state", resp.State,
		"next", out.Step,
		"navigate", out.Navigate,
	)
	return out, nil
}
