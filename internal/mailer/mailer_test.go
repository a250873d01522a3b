package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpractice/server/internal/model"
)

func mustEmail(t *testing.T, s string) model.Email {
	t.Helper()
	e, err := model.ParseEmail(s)
	require.NoError(t, err)
	return e
}

func TestSendLoginMailDeliversOutcome(t *testing.T) {
	type sent struct {
		target model.Email
		code   uint32
	}
	got := make(chan sent, 1)

	m := New(Config{From: "noreply@test.local"}, zerolog.Nop(),
		WithSendFunc(func(ctx context.Context, cfg Config, target model.Email, code uint32) error {
			got <- sent{target: target, code: code}
			return nil
		}))

	addr := mustEmail(t, "dancer@example.com")
	reply := m.SendLoginMail(context.Background(), addr, 482913)

	select {
	case err := <-reply:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no send outcome")
	}

	delivered := <-got
	assert.Equal(t, addr, delivered.target)
	assert.Equal(t, uint32(482913), delivered.code)
}

func TestSendFailureReportedOnReply(t *testing.T) {
	wantErr := errors.New("relay refused")
	m := New(Config{}, zerolog.Nop(),
		WithSendFunc(func(ctx context.Context, cfg Config, target model.Email, code uint32) error {
			return wantErr
		}))

	reply := m.SendLoginMail(context.Background(), mustEmail(t, "a@example.com"), 111111)

	select {
	case err := <-reply:
		assert.ErrorIs(t, err, wantErr)
	case <-time.After(2 * time.Second):
		t.Fatal("no send outcome")
	}
}

func TestDiscardedReplyDoesNotStallActor(t *testing.T) {
	m := New(Config{}, zerolog.Nop(),
		WithSendFunc(func(ctx context.Context, cfg Config, target model.Email, code uint32) error {
			return nil
		}))

	addr := mustEmail(t, "a@example.com")
	// Nobody reads these replies; the buffered channels absorb them.
	for i := 0; i < 10; i++ {
		_ = m.SendLoginMail(context.Background(), addr, uint32(100000+i))
	}

	// The actor is still responsive.
	reply := m.SendLoginMail(context.Background(), addr, 999999)
	select {
	case err := <-reply:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("actor stalled")
	}
}
