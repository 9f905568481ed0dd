package services

import "go.uber.org/zap"

// Mailer delivers account emails. The default implementation logs instead
// of sending; real delivery is a deployment concern.
type Mailer interface {
	SendVerificationEmail(email, code string) error
	SendPasswordResetEmail(email, code string) error
}

type logMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a Mailer that writes messages to the log.
func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) SendVerificationEmail(email, code string) error {
	m.logger.Info("Verification email",
		zap.String("to", email),
		zap.String("code", code))
	return nil
}

func (m *logMailer) SendPasswordResetEmail(email, code string) error {
	m.logger.Info("Password reset email",
		zap.String("to", email),
		zap.String("code", code))
	return nil
}
