package social

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStateManager(ttl time.Duration) *EncryptedStateManager {
	encKey := []byte("0123456789abcdef0123456789abcdef")
	hmacKey := []byte("fedcba9876543210fedcba9876543210")
	return NewEncryptedStateManager(encKey, hmacKey, ttl)
}

func TestEncryptedStateManager_RoundTrip(t *testing.T) {
	sm := testStateManager(10 * time.Minute)

	state := &OAuthState{
		Provider:     "google",
		CodeVerifier: "verifier-abc",
		RedirectURL:  "/dashboard",
	}

	token, err := sm.Encode(state)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := sm.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, "google", decoded.Provider)
	assert.Equal(t, "verifier-abc", decoded.CodeVerifier)
	assert.Equal(t, "/dashboard", decoded.RedirectURL)
	assert.NotEmpty(t, decoded.Nonce)
	assert.NotZero(t, decoded.IssuedAt)
	assert.NotZero(t, decoded.ExpiresAt)
}

func TestEncryptedStateManager_Expired(t *testing.T) {
	sm := testStateManager(time.Minute)

	state := &OAuthState{
		Provider:  "google",
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}

	token, err := sm.Encode(state)
	require.NoError(t, err)

	_, err = sm.Decode(token)
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestEncryptedStateManager_TamperedToken(t *testing.T) {
	sm := testStateManager(time.Minute)

	token, err := sm.Encode(&OAuthState{Provider: "kakao"})
	require.NoError(t, err)

	tampered := []byte(token)
	tampered[len(tampered)-2] ^= 0x01

	_, err = sm.Decode(string(tampered))
	assert.Error(t, err)
}

func TestEncryptedStateManager_WrongHMACKey(t *testing.T) {
	sm := testStateManager(time.Minute)
	other := NewEncryptedStateManager(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("another-hmac-key-another-hmac-ke"),
		time.Minute,
	)

	token, err := sm.Encode(&OAuthState{Provider: "kakao"})
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestEncryptedStateManager_GarbageInput(t *testing.T) {
	sm := testStateManager(time.Minute)

	_, err := sm.Decode("not-base64-%%%")
	assert.Error(t, err)

	_, err = sm.Decode("c2hvcnQ=")
	assert.Error(t, err)
}

func TestComputeCodeChallenge(t *testing.T) {
	verifier, err := generateCodeVerifier()
	require.NoError(t, err)
	require.NotEmpty(t, verifier)

	challenge := computeCodeChallenge(verifier)
	assert.NotEmpty(t, challenge)
	assert.NotEqual(t, verifier, challenge)
	assert.Equal(t, challenge, computeCodeChallenge(verifier))
}
