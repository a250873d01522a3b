package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// Email is a validated, normalized email address. The zero value is invalid;
// construct via ParseEmail.
type Email struct {
	addr string
}

// ParseEmail validates and normalizes an address. The display-name part of
// an RFC 5322 address is discarded; only the bare address is kept.
func ParseEmail(s string) (Email, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return Email{}, fmt.Errorf("invalid email address %q: %w", s, err)
	}
	return Email{addr: strings.ToLower(parsed.Address)}, nil
}

func (e Email) IsZero() bool   { return e.addr == "" }
func (e Email) String() string { return e.addr }

func (e Email) MarshalText() ([]byte, error) { return []byte(e.addr), nil }

func (e *Email) UnmarshalText(b []byte) error {
	parsed, err := ParseEmail(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
