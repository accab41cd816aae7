package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

// DefaultMinKeyLength is the minimum accepted API key length when the
// configuration does not specify one.
const DefaultMinKeyLength = 16

// APIKeyValidator validates opaque API keys against a configured master key.
type APIKeyValidator struct {
	masterKey []byte
	minLength int
}

// NewAPIKeyValidator creates a new API key validator. An empty master key
// leaves the validator in a reject-everything state rather than allowing
// unauthenticated access.
func NewAPIKeyValidator(masterKey string, minLength int) (validator *APIKeyValidator) {
	if minLength <= 0 {
		minLength = DefaultMinKeyLength
	}

	validator = &APIKeyValidator{
		masterKey: []byte(masterKey),
		minLength: minLength,
	}
	return validator
}

// Name returns the validator name.
func (v *APIKeyValidator) Name() (name string) {
	name = "api-key"
	return name
}

// Kind returns the credential kind this validator handles.
func (v *APIKeyValidator) Kind() (kind Kind) {
	kind = KindAPIKey
	return kind
}

// Validate checks the API key length and compares it against the master key.
// The comparison is constant-time so key validity cannot be probed through
// timing differences.
func (v *APIKeyValidator) Validate(credential Credential) (result *Result, err error) {
	if len(v.masterKey) == 0 {
		err = errors.New("API key authentication not configured")
		return result, err
	}

	if len(credential.Token) < v.minLength {
		err = fmt.Errorf("API key too short (minimum %d characters)", v.minLength)
		return result, err
	}

	if subtle.ConstantTimeCompare([]byte(credential.Token), v.masterKey) != 1 {
		err = errors.New("invalid API key")
		return result, err
	}

	result = &Result{
		Authenticated: true,
		Method:        v.Name(),
		Username:      "api-key-user",
	}
	return result, err
}
