package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

const (
	// DefaultVerifierBytes is the number of random bytes drawn for a PKCE code verifier.
	// 64 bytes encode to 86 base64url characters.
	DefaultVerifierBytes = 64

	// MinVerifierBytes and MaxVerifierBytes keep the encoded verifier within the
	// 43..128 character range allowed by RFC 7636.
	MinVerifierBytes = 32
	MaxVerifierBytes = 96

	// DefaultStateBytes is the number of random bytes drawn for the anti-CSRF state.
	DefaultStateBytes = 64

	// MinStateBytes is the smallest state accepted. Anything shorter is rejected as unsafe.
	MinStateBytes = 32

	// CodeChallengeMethodS256 is the only challenge method this client sends.
	CodeChallengeMethodS256 = "S256"
)

// randReader is the entropy source. Tests replace it to simulate an exhausted source.
var randReader io.Reader = rand.Reader

// PKCEPair holds the verifier and derived challenge for one authorization attempt.
// The verifier must stay in memory for the lifetime of that attempt only.
type PKCEPair struct {
	// CodeVerifier is sent to the token endpoint when the code is exchanged.
	CodeVerifier string

	// CodeChallenge is sent in the authorization request.
	CodeChallenge string

	// CodeChallengeMethod is always S256.
	CodeChallengeMethod string
}

// GeneratePKCE generates a verifier of DefaultVerifierBytes and its S256 challenge.
func GeneratePKCE() (*PKCEPair, error) {
	verifier, err := GenerateVerifier(DefaultVerifierBytes)
	if err != nil {
		return nil, err
	}

	return &PKCEPair{
		CodeVerifier:        verifier,
		CodeChallenge:       DeriveChallenge(verifier),
		CodeChallengeMethod: CodeChallengeMethodS256,
	}, nil
}

// GenerateVerifier draws length secure random bytes and encodes them as
// base64url without padding.
func GenerateVerifier(length int) (string, error) {
	if length < MinVerifierBytes || length > MaxVerifierBytes {
		return "", &ValidationError{
			Field:   "verifier length",
			Value:   length,
			Message: "must be between 32 and 96 bytes",
		}
	}
	return randomURLSafeString(length)
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// SHA-256 over the verifier's UTF-8 bytes, base64url-encoded without padding.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState generates an anti-CSRF state value from length random bytes.
// Lengths below MinStateBytes are rejected.
func GenerateState(length int) (string, error) {
	if length < MinStateBytes {
		return "", &ValidationError{
			Field:   "state length",
			Value:   length,
			Message: "must be at least 32 bytes",
		}
	}
	return randomURLSafeString(length)
}

func randomURLSafeString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return "", &RandomGenerationError{Requested: length, Err: err}
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
