package authflow

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

// ErrUnknownState is returned when the upstream reports a state the table lacks.
var ErrUnknownState = errors.New("unknown auth state")

// Action is what the view layer has to do after a step.
type Action int

const (
	// ActionAdvance renders the next form step in place.
	ActionAdvance Action = iota
	// ActionInline keeps the current step and shows a message or field errors.
	ActionInline
	// ActionNavigate leaves the form for another page.
	ActionNavigate
	// ActionFinish ends the flow and leaves the form.
	ActionFinish
)

func (a Action) String() string {
	switch a {
	case ActionAdvance:
		return "advance"
	case ActionInline:
		return "inline"
	case ActionNavigate:
		return "navigate"
	case ActionFinish:
		return "finish"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Outcome is the result of one step as the view layer sees it.
type Outcome struct {
	Action      Action            `json:"-"`
	Step        State             `json:"step"`
	Navigate    string            `json:"navigate,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Message     string            `json:"message,omitempty"`
	Name        string            `json:"name,omitempty"`
	Done        bool              `json:"done"`
}

// rule is one row of the transition table.
type rule struct {
	action Action
	// step to advance to; empty means stay on the current step
	step State
	// route builds the navigation target
	route func(routes Routes, cur FlowState, resp models.AuthResponse) string
	// message shown inline when the upstream sent no error text
	message string
	// fieldErrors shown inline against specific inputs
	fieldErrors map[string]string
}

var transitions = map[State]rule{
	StateSuccess: {
		action: ActionFinish,
		route: func(routes Routes, _ FlowState, resp models.AuthResponse) string {
			if resp.RedirectURL != "" {
				return resp.RedirectURL
			}
			return routes.Dashboard
		},
	},
	StateLoginEmail:      {action: ActionAdvance, step: StateLoginEmail},
	StateLoginPassword:   {action: ActionAdvance, step: StateLoginPassword},
	StateRegisterEmail:   {action: ActionAdvance, step: StateRegisterEmail},
	StateRegisterConfirm: {action: ActionAdvance, step: StateRegisterConfirm},
	StateRegisterDetails: {action: ActionAdvance, step: StateRegisterDetails},
	StateRegisterExtra:   {action: ActionAdvance, step: StateRegisterExtra},
	StateRegisterConfirmSent: {
		action: ActionNavigate,
		step:   StateRegisterConfirmSent,
		route: func(routes Routes, cur FlowState, _ models.AuthResponse) string {
			return withQuery(routes.ConfirmSent, "email", cur.Email)
		},
	},
	StateRegisterRequired: {
		action:      ActionInline,
		fieldErrors: map[string]string{"email": "You need to create an account before signing in."},
	},
	StateExistingAccount: {
		action:  ActionInline,
		message: "An account with this email already exists. Please sign in.",
	},
	StateInvalidEmail: {
		action:  ActionInline,
		message: "That email address is not valid.",
	},
	StateInvalidLink: {
		action:  ActionInline,
		message: "This confirmation link is invalid or has expired.",
	},
	StateUserBlocked: {
		action: ActionFinish,
		route: func(routes Routes, _ FlowState, resp models.AuthResponse) string {
			return withQuery(routes.Denied, "error", resp.FirstError())
		},
	},
	StateError:          {action: ActionFinish, route: errorRoute},
	StateErrorTemporary: {action: ActionFinish, route: errorRoute},
	StateInactive:       {action: ActionFinish, route: errorRoute},
}

func errorRoute(routes Routes, _ FlowState, resp models.AuthResponse) string {
	return withQuery(routes.Error, "error", resp.FirstError())
}

func withQuery(path, key, value string) string {
	if value == "" {
		return path
	}
	return path + "?" + url.Values{key: {value}}.Encode()
}

// Decide applies the transition table to the upstream's answer for the
// current step and returns the next flow state and what the view should do.
// Field errors always keep the user on the current step.
func Decide(cur FlowState, resp models.AuthResponse, routes Routes) (FlowState, Outcome, error) {
	if len(resp.FieldErrors) > 0 {
		return cur, Outcome{
			Action:      ActionInline,
			Step:        cur.Step,
			FieldErrors: resp.FieldErrors,
			Message:     resp.FirstError(),
			Name:        cur.Name,
		}, nil
	}

	state := State(resp.State)
	r, ok := transitions[state]
	if !ok {
		next := cur
		next.Step = StateError
		next.PartialToken = ""
		return next, Outcome{
			Action:   ActionFinish,
			Step:     StateError,
			Navigate: routes.Error,
			Done:     true,
		}, fmt.Errorf("%w: %q", ErrUnknownState, resp.State)
	}

	next := cur
	if resp.Flow != "" {
		next.Flow = resp.Flow
	}
	out := Outcome{Action: r.action, Name: cur.Name}

	switch r.action {
	case ActionAdvance:
		next.Step = r.step
		next.PartialToken = resp.PartialToken
		if resp.ExtraData.Name != "" {
			next.Name = resp.ExtraData.Name
		}
		out.Step = next.Step
		out.Name = next.Name
	case ActionInline:
		out.Step = cur.Step
		out.Message = resp.FirstError()
		if out.Message == "" {
			out.Message = r.message
		}
		out.FieldErrors = r.fieldErrors
	case ActionNavigate:
		next.Step = r.step
		next.PartialToken = resp.PartialToken
		out.Step = next.Step
		out.Navigate = r.route(routes, cur, resp)
	case ActionFinish:
		next.Step = state
		next.PartialToken = ""
		out.Step = state
		out.Navigate = r.route(routes, cur, resp)
		out.Done = true
	}

	return next, out, nil
}
