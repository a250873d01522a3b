// Package mailer owns outbound email. SMTP sends are slow, so they run on
// the actor goroutine and callers that care about the outcome wait on a
// one-shot reply.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/peerpractice/server/internal/model"
)

const mailboxSize = 64

// Config carries the SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ReplyTo  string
}

type message interface{ isMessage() }

type sendLoginMail struct {
	target model.Email
	code   uint32
	reply  chan<- error
}

func (sendLoginMail) isMessage() {}

// Mailer is the email actor.
type Mailer struct {
	in   chan message
	cfg  Config
	log  zerolog.Logger
	send func(ctx context.Context, cfg Config, target model.Email, code uint32) error
}

// Option configures the actor at spawn time.
type Option func(*Mailer)

// WithSendFunc replaces the SMTP transport, for tests.
func WithSendFunc(send func(ctx context.Context, cfg Config, target model.Email, code uint32) error) Option {
	return func(m *Mailer) { m.send = send }
}

// New spawns the email actor.
func New(cfg Config, log zerolog.Logger, opts ...Option) *Mailer {
	m := &Mailer{
		in:   make(chan message, mailboxSize),
		cfg:  cfg,
		log:  log.With().Str("actor", "mailer").Logger(),
		send: sendOverSMTP,
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.loop()
	return m
}

// SendLoginMail queues a login-code email and returns a one-shot channel
// carrying the send outcome. The channel is buffered, so callers may
// discard it without stalling the actor.
func (m *Mailer) SendLoginMail(ctx context.Context, target model.Email, code uint32) <-chan error {
	reply := make(chan error, 1)
	select {
	case m.in <- sendLoginMail{target: target, code: code, reply: reply}:
	case <-ctx.Done():
		reply <- ctx.Err()
	}
	return reply
}

func (m *Mailer) loop() {
	ctx := context.Background()
	for msg := range m.in {
		switch s := msg.(type) {
		case sendLoginMail:
			err := m.send(ctx, m.cfg, s.target, s.code)
			if err != nil {
				m.log.Error().Err(err).Str("to", s.target.String()).Msg("login mail failed")
			}
			s.reply <- err
		}
	}
}

func sendOverSMTP(ctx context.Context, cfg Config, target model.Email, code uint32) error {
	msg := mail.NewMsg()
	if err := msg.From(cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if cfg.ReplyTo != "" {
		if err := msg.ReplyTo(cfg.ReplyTo); err != nil {
			return fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	if err := msg.To(target.String()); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Login Code %06d", code))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("%06d", code))

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
