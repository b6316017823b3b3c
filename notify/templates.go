package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// Email subjects. Kept as constants so tests and audit tooling can match on
// them.
const (
	SubjectPasswordReset      = "Reset your password"
	SubjectCredentialsCreated = "Your account is ready"
	SubjectCredentialsResent  = "Your new login credentials"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #111827;">Password reset requested</h2>
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>We received a request to reset the password for your account. Click the button below to choose a new password.</p>
  <p style="margin: 28px 0;">
    <a href="{{.ResetURL}}" style="background-color: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Reset password</a>
  </p>
  <p>This link expires in {{.TTLMinutes}} minutes and can be used only once.</p>
  <p>If you did not request a reset, you can safely ignore this email. Your password will not change.</p>
  <p style="color: #6b7280; font-size: 12px; margin-top: 32px;">If the button does not work, copy this link into your browser:<br>{{.ResetURL}}</p>
</body>
</html>`))

var credentialsTemplate = template.Must(template.New("credentials").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #111827;">{{if .Resend}}Your new login credentials{{else}}Welcome{{if .Name}}, {{.Name}}{{end}}!{{end}}</h2>
  {{if .Resend}}
  <p>Your login credentials have been regenerated by an administrator. Your previous password no longer works.</p>
  {{else}}
  <p>An account has been created for you. Use the credentials below to sign in.</p>
  {{end}}
  <table style="border-collapse: collapse; margin: 20px 0;">
    <tr>
      <td style="padding: 8px 16px 8px 0; color: #6b7280;">Email</td>
      <td style="padding: 8px 0; font-family: monospace;">{{.Email}}</td>
    </tr>
    <tr>
      <td style="padding: 8px 16px 8px 0; color: #6b7280;">Temporary password</td>
      <td style="padding: 8px 0; font-family: monospace;">{{.TempPassword}}</td>
    </tr>
  </table>
  <p style="margin: 28px 0;">
    <a href="{{.LoginURL}}" style="background-color: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Sign in</a>
  </p>
  <p><strong>You will be asked to change this password the first time you sign in.</strong></p>
</body>
</html>`))

// ResetEmailData fills the password reset template.
type ResetEmailData struct {
	Name       string
	ResetURL   string
	TTLMinutes int
}

// RenderResetEmail produces the HTML body for a password reset message.
func RenderResetEmail(data ResetEmailData) (string, error) {
	var b strings.Builder
	if err := resetTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render reset email: %w", err)
	}
	return b.String(), nil
}

// CredentialsEmailData fills the provisioned credentials template.
type CredentialsEmailData struct {
	Name         string
	Email        string
	TempPassword string
	LoginURL     string

	// Resend switches the wording for regenerated credentials on an
	// existing account.
	Resend bool
}

// RenderCredentialsEmail produces the HTML body for a provisioning message.
func RenderCredentialsEmail(data CredentialsEmailData) (string, error) {
	var b strings.Builder
	if err := credentialsTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render credentials email: %w", err)
	}
	return b.String(), nil
}
