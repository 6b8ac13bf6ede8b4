package models

import "net/http"

// AuthResponse is the result of one step of the login/registration flow.
type AuthResponse struct {
	Flow         string            `json:"flow"`
	State        string            `json:"state"`
	PartialToken string            `json:"partial_token,omitempty"`
	Errors       []string          `json:"errors"`
	FieldErrors  map[string]string `json:"field_errors"`
	RedirectURL  string            `json:"redirect_url,omitempty"`
	ExtraData    AuthExtraData     `json:"extra_data"`

	// Cookies set by the upstream on this response, relayed to the browser.
	Cookies []*http.Cookie `json:"-"`
}

// AuthExtraData carries display details the upstream attaches to a step.
type AuthExtraData struct {
	Name string `json:"name,omitempty"`
}

// FirstError returns the first flow-level error message, or "".
func (r AuthResponse) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// LoginEmailRequest is the body of POST /api/login/email/.
type LoginEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Next  string `json:"next,omitempty"`
	Flow  string `json:"flow"`
}

// LoginPasswordRequest is the body of POST /api/login/password/.
type LoginPasswordRequest struct {
	Password     string `json:"password" validate:"required"`
	PartialToken string `json:"partial_token"`
	Flow         string `json:"flow"`
}

// RegisterEmailRequest is the body of POST /api/register/email/.
type RegisterEmailRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Recaptcha string `json:"recaptcha,omitempty"`
	Next      string `json:"next,omitempty"`
	Flow      string `json:"flow"`
}

// RegisterConfirmRequest is the body of POST /api/register/confirm/.
type RegisterConfirmRequest struct {
	VerificationCode string `json:"verification_code" validate:"required"`
	PartialToken     string `json:"partial_token"`
	Flow             string `json:"flow"`
}

// LegalAddress is the postal address collected during registration.
type LegalAddress struct {
	FirstName        string   `json:"first_name" validate:"required,max=60"`
	LastName         string   `json:"last_name" validate:"required,max=60"`
	StreetAddress    []string `json:"street_address" validate:"required,min=1,max=5,dive,max=60"`
	City             string   `json:"city" validate:"required"`
	Country          string   `json:"country" validate:"required,iso3166_1_alpha2"`
	StateOrTerritory string   `json:"state_or_territory,omitempty"`
	PostalCode       string   `json:"postal_code,omitempty"`
}

// RegisterDetailsRequest is the body of POST /api/register/details/.
type RegisterDetailsRequest struct {
	Name         string       `json:"name" validate:"required"`
	Password     string       `json:"password" validate:"required,min=8"`
	LegalAddress LegalAddress `json:"legal_address"`
	Flow         string       `json:"flow"`
	PartialToken string       `json:"partial_token"`
}

// RegisterExtraRequest is the body of POST /api/register/extra/.
type RegisterExtraRequest struct {
	Gender           string `json:"gender,omitempty" validate:"omitempty,oneof=m f o"`
	BirthYear        int    `json:"birth_year,omitempty" validate:"omitempty,min=1900"`
	Company          string `json:"company" validate:"required"`
	JobTitle         string `json:"job_title" validate:"required"`
	Industry         string `json:"industry,omitempty"`
	JobFunction      string `json:"job_function,omitempty"`
	YearsExperience  int    `json:"years_experience,omitempty"`
	CompanySize      int    `json:"company_size,omitempty"`
	HighestEducation string `json:"highest_education,omitempty"`
	Flow             string `json:"flow"`
	PartialToken     string `json:"partial_token"`
}
