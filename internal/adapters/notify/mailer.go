// Package notify emails rendered reports to requesters over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/pkg/logger"
	"github.com/okian/blueprint/pkg/metrics"
)

// Message defaults.
const (
	DefaultSubject = "Your Soul Blueprint"
	DefaultBody    = "Attached is your personalized Soul Blueprint report."
	DefaultPort    = 465
)

const contentTypePDF mail.ContentType = "application/pdf"

// Sentinel kinds for notification errors.
var (
	ErrMissingCredentials = errors.New("email address and password are required")
	ErrMissingAttachment  = errors.New("report attachment not found")
)

// Config holds SMTP settings. Username doubles as the sender address unless
// From is set.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	Body     string
	Timeout  time.Duration
}

// Sender delivers prepared messages. *mail.Client implements it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends report emails.
type Mailer struct {
	cfg    Config
	sender Sender
	logger logger.Logger
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSender replaces the SMTP client.
func WithSender(s Sender) Option {
	return func(m *Mailer) {
		if s != nil {
			m.sender = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Mailer that authenticates with PLAIN over an implicit TLS
// session.
func New(cfg Config, opts ...Option) (*Mailer, error) {
	if strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Body == "" {
		cfg.Body = DefaultBody
	}

	m := &Mailer{cfg: cfg, logger: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}

	if m.sender == nil {
		clientOpts := []mail.Option{
			mail.WithPort(cfg.Port),
			mail.WithSSL(),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, mail.WithTimeout(cfg.Timeout))
		}
		client, err := mail.NewClient(cfg.Host, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("smtp client: %w", err)
		}
		m.sender = client
	}
	return m, nil
}

// Send mails the PDF at pdfPath to the given address.
func (m *Mailer) Send(ctx context.Context, to, pdfPath string) error {
	const op = "notify.send"

	if _, err := os.Stat(pdfPath); err != nil {
		return failure.Wrap(op, failure.KindInternal, fmt.Errorf("%w: %s", ErrMissingAttachment, pdfPath))
	}

	msg, err := m.message(to, pdfPath)
	if err != nil {
		return failure.Wrap(op, failure.KindTransport, err)
	}

	start := time.Now()
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		metrics.RecordEmailFailed()
		m.logger.Warn(ctx, "report email failed",
			logger.String("host", m.cfg.Host),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return failure.Wrap(op, failure.KindTransport, err)
	}

	metrics.RecordEmailSent()
	m.logger.Debug(ctx, "report email sent",
		logger.String("attachment", filepath.Base(pdfPath)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (m *Mailer) message(to, pdfPath string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(m.cfg.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.cfg.Body)
	msg.AttachFile(pdfPath, mail.WithFileContentType(contentTypePDF))
	return msg, nil
}
