// Package authflow drives the multi-step login and registration flow. The
// upstream reports a state token after every step; a single transition table
// turns that token into the next step or a navigation.
package authflow

// State is a step token reported by the upstream auth API.
type State string

const (
	StateLoginEmail          State = "login/email"
	StateLoginPassword       State = "login/password"
	StateRegisterEmail       State = "register/email"
	StateRegisterConfirmSent State = "register/confirm-sent"
	StateRegisterConfirm     State = "register/confirm"
	StateRegisterDetails     State = "register/details"
	StateRegisterExtra       State = "register/extra"
	StateRegisterRequired    State = "register/required"
	StateExistingAccount     State = "existing-account"
	StateInvalidEmail        State = "invalid-email"
	StateInvalidLink         State = "invalid-link"
	StateSuccess             State = "success"
	StateError               State = "error"
	StateErrorTemporary      State = "error-temporary"
	StateUserBlocked         State = "user-blocked"
	StateInactive            State = "inactive"
)

// Flow names sent with every request.
const (
	FlowLogin    = "login"
	FlowRegister = "register"
)

// Terminal reports whether the flow ends once this state is reached.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateError, StateErrorTemporary, StateUserBlocked, StateInactive:
		return true
	}
	return false
}

// FlowState is everything the controller remembers between submissions.
type FlowState struct {
	Flow         string `json:"flow"`
	Step         State  `json:"step"`
	PartialToken string `json:"partial_token,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}

// NewLoginState is where a fresh session starts.
func NewLoginState() FlowState {
	return FlowState{Flow: FlowLogin, Step: StateLoginEmail}
}

// Routes are the pages the view layer navigates to when the flow leaves the form.
type Routes struct {
	Dashboard   string
	ConfirmSent string
	Denied      string
	Error       string
}

// DefaultRoutes returns the storefront's page paths.
func DefaultRoutes() Routes {
	return Routes{
		Dashboard:   "/dashboard/",
		ConfirmSent: "/create-account/confirm-sent/",
		Denied:      "/create-account/denied/",
		Error:       "/create-account/error/",
	}
}
