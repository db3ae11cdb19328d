// Package otp issues and verifies six-digit phone login codes.  Codes are
// stored hashed with a TTL and an attempt counter; delivery is handed to a
// Notifier (the SMS gateway queue in production).
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// CodeLength is the number of digits in a login code.
	CodeLength = 6
	// MinPhoneLength is the shortest phone input accepted, as typed.
	MinPhoneLength = 10
)

var (
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidCode     = errors.New("code must be 6 digits")
	ErrCodeMismatch    = errors.New("code does not match")
	ErrCodeExpired     = errors.New("code expired or not requested")
	ErrTooManyAttempts = errors.New("too many attempts")

	// ErrNotFound is what Store implementations return for a missing or
	// expired challenge.
	ErrNotFound = errors.New("challenge not found")
)

// Challenge is the stored state of an outstanding code.
type Challenge struct {
	Hash     string
	Attempts int
}

// Store keeps one challenge per phone number.
type Store interface {
	Save(ctx context.Context, phone, hash string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (Challenge, error)
	IncrAttempts(ctx context.Context, phone string) (int, error)
	Delete(ctx context.Context, phone string) error
}

// Notifier delivers a code to the phone.
type Notifier interface {
	SendCode(ctx context.Context, phone, code string, expiresAt time.Time) error
}

// Service ties code generation, storage and delivery together.
type Service struct {
	store       Store
	notifier    Notifier
	ttl         time.Duration
	maxAttempts int
	logCodes    bool
	log         *zap.Logger
	generate    func() (string, error)
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCodeLogging logs issued codes at debug level.  Only for development.
func WithCodeLogging() Option { return func(s *Service) { s.logCodes = true } }

// WithGenerator replaces the random code generator.
func WithGenerator(g func() (string, error)) Option { return func(s *Service) { s.generate = g } }

// NewService returns a Service.  notifier may be nil, in which case codes are
// stored but not delivered.
func NewService(store Store, notifier Notifier, ttl time.Duration, maxAttempts int, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	s := &Service{
		store:       store,
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		log:         log,
		generate:    randomCode,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizePhone strips spaces, dashes and parentheses and prefixes "+".
// The number as typed must be at least ten characters long, counting a
// leading "+", and may carry at most fifteen digits.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < MinPhoneLength {
		return "", ErrInvalidPhone
	}
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if digits == "" || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

// Send issues a fresh code for the phone, replacing any outstanding one, and
// returns the normalized phone and the code's expiry.
func (s *Service) Send(ctx context.Context, rawPhone string) (string, time.Time, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return "", time.Time{}, err
	}
	code, err := s.generate()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}
	if err := s.store.Save(ctx, phone, hashCode(phone, code), s.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("save code: %w", err)
	}
	exp := s.now().UTC().Add(s.ttl)
	if s.logCodes {
		s.log.Debug("otp issued", zap.String("phone", phone), zap.String("code", code))
	}
	if s.notifier != nil {
		if err := s.notifier.SendCode(ctx, phone, code, exp); err != nil {
			_ = s.store.Delete(ctx, phone)
			return "", time.Time{}, fmt.Errorf("deliver code: %w", err)
		}
	}
	return phone, exp, nil
}

// Verify checks a code.  A correct code consumes the challenge; a wrong one
// counts against the attempt budget, and the challenge is burned once the
// budget is spent.
func (s *Service) Verify(ctx context.Context, rawPhone, code string) (string, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if !validCode(code) {
		return "", ErrInvalidCode
	}
	ch, err := s.store.Get(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		return "", ErrCodeExpired
	}
	if err != nil {
		return "", fmt.Errorf("load code: %w", err)
	}
	if ch.Attempts >= s.maxAttempts {
		_ = s.store.Delete(ctx, phone)
		return "", ErrTooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(ch.Hash), []byte(hashCode(phone, code))) != 1 {
		n, err := s.store.IncrAttempts(ctx, phone)
		if errors.Is(err, ErrNotFound) {
			return "", ErrCodeExpired
		}
		if err != nil {
			return "", fmt.Errorf("count attempt: %w", err)
		}
		if n >= s.maxAttempts {
			_ = s.store.Delete(ctx, phone)
			return "", ErrTooManyAttempts
		}
		return "", ErrCodeMismatch
	}
	if err := s.store.Delete(ctx, phone); err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	return phone, nil
}

func validCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// hashCode binds the code to the phone so equal codes for different phones
// never share a hash.
func hashCode(phone, code string) string {
	sum := sha256.Sum256([]byte(phone + ":" + code))
	return hex.EncodeToString(sum[:])
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
