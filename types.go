package workloadhub

// Request and response bodies for the JSON API. Field names follow the
// frontend's camelCase convention.

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest completes a password reset.
type PasswordResetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// VerifyUserRequest marks an account verified after its first password change.
type VerifyUserRequest struct {
	UserID string `json:"userId"`
}

// SendCredentialsRequest provisions login credentials for an account.
type SendCredentialsRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"userId,omitempty"`
	Resend bool   `json:"resend,omitempty"`
}

// SetAuthStatusRequest enables or disables an account.
type SetAuthStatusRequest struct {
	UserID   string `json:"userId"`
	IsActive *bool  `json:"isActive"`
}

// DeleteUserRequest removes an account.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// OKResponse is the success envelope. Optional fields appear per endpoint.
type OKResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Email   string `json:"email,omitempty"`
	Status  *bool  `json:"status,omitempty"`
	Service string `json:"service,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
