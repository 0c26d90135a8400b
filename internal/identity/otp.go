package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/healthbridge/healthbridge/pkg/config"
	"github.com/healthbridge/healthbridge/pkg/logger"
)

// otpEntry holds a pending one-time passcode for a single email address.
type otpEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// OTPStore issues and verifies short-lived one-time passcodes. Codes are
// kept in process memory and are single-use.
type OTPStore struct {
	mu          sync.Mutex
	codes       map[string]*otpEntry
	digits      int
	ttl         time.Duration
	maxAttempts int
	logger      *logger.Logger
	now         func() time.Time
}

// NewOTPStore creates a new OTP store
func NewOTPStore(cfg *config.OTPConfig, log *logger.Logger) *OTPStore {
	return &OTPStore{
		codes:       make(map[string]*otpEntry),
		digits:      cfg.Digits,
		ttl:         time.Duration(cfg.TTLSeconds) * time.Second,
		maxAttempts: cfg.MaxAttempts,
		logger:      log,
		now:         time.Now,
	}
}

// Generate creates a new passcode for the given email, replacing any
// outstanding one.
func (s *OTPStore) Generate(email string) (string, error) {
	code, err := s.randomCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	s.codes[email] = &otpEntry{
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}

	s.logger.WithField("email", email).Info("Generated OTP")
	return code, nil
}

// Verify checks a passcode for the given email. A successful verification
// consumes the code; repeated failures beyond the attempt limit invalidate it.
func (s *OTPStore) Verify(email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[email]
	if !ok {
		return false, nil
	}

	if s.now().After(entry.expiresAt) {
		delete(s.codes, email)
		return false, nil
	}

	if entry.code != code {
		entry.attempts++
		if entry.attempts >= s.maxAttempts {
			delete(s.codes, email)
			s.logger.Security("otp_attempts_exhausted", email, nil)
		}
		return false, nil
	}

	delete(s.codes, email)
	return true, nil
}

// randomCode generates a fixed-length numeric passcode using crypto/rand
func (s *OTPStore) randomCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, s.digits)

	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}

	return string(code), nil
}

// prune removes expired entries. Caller must hold the lock.
func (s *OTPStore) prune() {
	now := s.now()
	for email, entry := range s.codes {
		if now.After(entry.expiresAt) {
			delete(s.codes, email)
		}
	}
}
