package mail

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"blog-backend/internal/config"
	"blog-backend/internal/model"
)

func testJob() model.EmailJob {
	queued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.EmailJob{
		Email:      "a@x.com",
		Code:       "042137",
		ExpiresAt:  queued.Add(10 * time.Minute),
		EnqueuedAt: queued,
	}
}

func TestRenderVerification(t *testing.T) {
	body, err := RenderVerification(testJob())
	require.NoError(t, err)
	assert.Contains(t, body, "<strong>042137</strong>")
	assert.Contains(t, body, "expire in 10 minutes")
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "noreply@example.com"})
	msg, err := s.message(testJob())
	require.NoError(t, err)

	assert.Equal(t, []string{"noreply@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{verificationSubject}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "042137")
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSMTPSender(config.SMTPConfig{Host: "127.0.0.1", Port: 1}).Send(ctx, testJob())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewSender(config.SMTPConfig{}, zap.New(core))
	require.IsType(t, &LogSender{}, sender)

	require.NoError(t, sender.Send(context.Background(), testJob()))
	entries := logs.FilterMessage("verification code").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "042137", entries[0].ContextMap()["code"])

	assert.IsType(t, &SMTPSender{}, NewSender(config.SMTPConfig{Host: "smtp.example.com"}, zap.NewNop()))
}
