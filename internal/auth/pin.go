package auth

import (
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPIN   = errors.New("invalid pin")
	ErrInvalidToken = errors.New("invalid token")
)

// PinGate checks the admin PIN. Only the bcrypt hash is kept in memory.
type PinGate struct {
	hash []byte
}

func NewPinGate(pin string) (*PinGate, error) {
	return newPinGate(pin, bcrypt.DefaultCost)
}

func newPinGate(pin string, cost int) (*PinGate, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, errors.New("admin pin must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash admin pin")
	}
	return &PinGate{hash: hash}, nil
}

func (g *PinGate) Verify(pin string) error {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(strings.TrimSpace(pin))); err != nil {
		return ErrInvalidPIN
	}
	return nil
}
