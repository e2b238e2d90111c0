// Package mail delivers verification codes.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"blog-backend/internal/config"
	"blog-backend/internal/model"
)

const verificationSubject = "Email Verification"

var verificationTemplate = template.Must(template.New("verification").Parse(`<html>
<body>
    <h2>Email Verification</h2>
    <p>Your verification code is: <strong>{{.Code}}</strong></p>
    <p>This code will expire in {{.Minutes}} minutes.</p>
    <p>If you didn't request this verification, please ignore this email.</p>
</body>
</html>`))

type Sender interface {
	Send(ctx context.Context, job model.EmailJob) error
}

// RenderVerification builds the HTML body for job. The lifetime is counted from
// the moment the job was queued.
func RenderVerification(job model.EmailJob) (string, error) {
	minutes := int(math.Ceil(job.ExpiresAt.Sub(job.EnqueuedAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: job.Code, Minutes: minutes})
	if err != nil {
		return "", fmt.Errorf("render verification email failed: %w", err)
	}
	return buf.String(), nil
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, job model.EmailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.message(job)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send verification email failed: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(job model.EmailJob) (*gomail.Message, error) {
	body, err := RenderVerification(job)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", job.Email)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/html", body)
	return msg, nil
}

// LogSender writes codes to the log instead of mailing them. Used when no SMTP
// host is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("mail")}
}

func (s *LogSender) Send(_ context.Context, job model.EmailJob) error {
	s.log.Info("verification code",
		zap.String("email", job.Email),
		zap.String("code", job.Code),
		zap.Duration("valid_for", job.ExpiresAt.Sub(job.EnqueuedAt).Round(time.Second)),
	)
	return nil
}

// NewSender picks the SMTP sender when a host is configured.
func NewSender(cfg config.SMTPConfig, log *zap.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg)
}
