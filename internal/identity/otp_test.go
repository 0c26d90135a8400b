package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/config"
	"github.com/healthbridge/healthbridge/pkg/logger"
)

func newTestOTPStore() *OTPStore {
	return NewOTPStore(&config.OTPConfig{Digits: 6, TTLSeconds: 300, MaxAttempts: 3}, logger.New("error"))
}

func TestOTPGenerateAndVerify(t *testing.T) {
	store := newTestOTPStore()

	code, err := store.Generate("a@x.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	ok, err := store.Verify("a@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPSingleUse(t *testing.T) {
	store := newTestOTPStore()

	code, err := store.Generate("a@x.com")
	require.NoError(t, err)

	ok, _ := store.Verify("a@x.com", code)
	require.True(t, ok)

	ok, _ = store.Verify("a@x.com", code)
	assert.False(t, ok)
}

func TestOTPExpiry(t *testing.T) {
	store := newTestOTPStore()

	code, err := store.Generate("a@x.com")
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	ok, _ := store.Verify("a@x.com", code)
	assert.False(t, ok)
}

func TestOTPAttemptLimit(t *testing.T) {
	store := newTestOTPStore()

	code, err := store.Generate("a@x.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, _ := store.Verify("a@x.com", "wrong!")
		assert.False(t, ok)
	}

	// Code is invalidated after the attempt limit, even if correct
	ok, _ := store.Verify("a@x.com", code)
	assert.False(t, ok)
}

func TestOTPReplacement(t *testing.T) {
	store := newTestOTPStore()

	first, err := store.Generate("a@x.com")
	require.NoError(t, err)
	second, err := store.Generate("a@x.com")
	require.NoError(t, err)

	if first != second {
		ok, _ := store.Verify("a@x.com", first)
		assert.False(t, ok)
	}

	ok, _ := store.Verify("a@x.com", second)
	assert.True(t, ok)
}

func TestOTPUnknownEmail(t *testing.T) {
	store := newTestOTPStore()

	ok, err := store.Verify("nobody@x.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}
