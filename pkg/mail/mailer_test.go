package mail

import (
	"context"
	"testing"

	"github.com/ikkim/captains-log/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetMessage(t *testing.T) {
	msg, err := PasswordResetMessage("captain@example.com", "http://localhost:8080/reset_password/abc.def.ghi", "1h0m0s")
	require.NoError(t, err)

	assert.Equal(t, "captain@example.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.HTMLBody, `href="http://localhost:8080/reset_password/abc.def.ghi"`)
	assert.Contains(t, msg.HTMLBody, "1h0m0s")
}

func TestNewSender(t *testing.T) {
	assert.IsType(t, LogSender{}, NewSender(config.MailConfig{}))

	smtp := NewSender(config.MailConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		SMTPUser: "captain",
		From:     "captain@example.com",
	})
	assert.IsType(t, &SMTPSender{}, smtp)
}

func TestSMTPSender_RejectsEmptyRecipient(t *testing.T) {
	sender := NewSMTPSender(config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587})
	err := sender.Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
}

func TestLogSender_Send(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "a@b.c"}))
}
