// Package pending owns the short-lived one-time login codes. State is
// in-memory only; losing it across a restart just means the user requests
// a new code.
package pending

import (
	"context"
	"time"

	"github.com/peerpractice/server/internal/model"
)

// TTL is how long a stored code stays valid after its most recent upsert.
const TTL = 15 * time.Minute

const mailboxSize = 64

type entry struct {
	code     uint32
	issuedAt time.Time
}

type message interface{ isMessage() }

type upsert struct {
	address model.Email
	code    uint32
}
type getByAddress struct {
	address model.Email
	reply   chan<- getReply
}
type remove struct{ address model.Email }

type getReply struct {
	code uint32
	ok   bool
}

func (upsert) isMessage()       {}
func (getByAddress) isMessage() {}
func (remove) isMessage()       {}

// Logins is the pending-logins actor.
type Logins struct {
	in  chan message
	now func() time.Time
}

// Option configures the actor at spawn time.
type Option func(*Logins)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logins) { l.now = now }
}

// NewLogins spawns the pending-logins actor.
func NewLogins(opts ...Option) *Logins {
	l := &Logins{
		in:  make(chan message, mailboxSize),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.loop()
	return l
}

// Upsert unconditionally replaces the stored code for the address and
// resets its timer.
func (l *Logins) Upsert(ctx context.Context, address model.Email, code uint32) {
	select {
	case l.in <- upsert{address: address, code: code}:
	case <-ctx.Done():
	}
}

// GetByAddress returns the current code if one was issued within the TTL.
// Reading an expired entry removes it as a side effect.
func (l *Logins) GetByAddress(ctx context.Context, address model.Email) (uint32, bool) {
	reply := make(chan getReply, 1)
	select {
	case l.in <- getByAddress{address: address, reply: reply}:
	case <-ctx.Done():
		return 0, false
	}
	select {
	case r := <-reply:
		return r.code, r.ok
	case <-ctx.Done():
		return 0, false
	}
}

// Remove deletes any stored code for the address.
func (l *Logins) Remove(ctx context.Context, address model.Email) {
	select {
	case l.in <- remove{address: address}:
	case <-ctx.Done():
	}
}

func (l *Logins) loop() {
	state := make(map[model.Email]entry)

	for msg := range l.in {
		switch m := msg.(type) {
		case upsert:
			state[m.address] = entry{code: m.code, issuedAt: l.now()}
		case getByAddress:
			e, exists := state[m.address]
			valid := exists && l.now().Sub(e.issuedAt) < TTL
			if exists && !valid {
				delete(state, m.address)
			}
			if valid {
				m.reply <- getReply{code: e.code, ok: true}
			} else {
				m.reply <- getReply{}
			}
		case remove:
			delete(state, m.address)
		}
	}
}
