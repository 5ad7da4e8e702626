package mail

import (
	"bytes"
	"html/template"
)

var passwordResetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #0b1021; color: #e5e7eb;">
  <div style="max-width: 560px; margin: 0 auto; background-color: #111827; padding: 32px; border-radius: 10px;">
    <h2 style="margin-top: 0;">Captain's Log: password reset</h2>
    <p>A password reset was requested for your account.</p>
    <p style="text-align: center; margin: 28px 0;">
      <a href="{{.URL}}" style="display: inline-block; background-color: #38bdf8; color: #0b1021; padding: 12px 28px; text-decoration: none; border-radius: 8px; font-weight: bold;">Reset password</a>
    </p>
    <p style="font-size: 13px; color: #9ca3af;">The link is valid for {{.ValidFor}} and only the most recent link works.</p>
    <p style="font-size: 12px; color: #9ca3af; word-break: break-all;">{{.URL}}</p>
    <p style="font-size: 13px; color: #9ca3af;">If you did not request this, ignore this email.</p>
  </div>
</body>
</html>`))

// PasswordResetMessage builds the reset email for recipient pointing at url.
func PasswordResetMessage(recipient, url, validFor string) (Message, error) {
	var body bytes.Buffer
	err := passwordResetTemplate.Execute(&body, struct {
		URL      string
		ValidFor string
	}{URL: url, ValidFor: validFor})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:       recipient,
		Subject:  "Password Reset Request",
		HTMLBody: body.String(),
	}, nil
}
