package auth

import (
	"errors"
)

// Kind classifies a presented credential.
type Kind string

// Credential kinds.
const (
	KindNone   Kind = "none"
	KindAPIKey Kind = "api_key"
	KindJWT    Kind = "jwt"
)

// ErrNoCredential indicates the request carried no credential at all, as
// opposed to carrying one that failed validation.
var ErrNoCredential = errors.New("missing credentials")

// Credential is an extracted, classified bearer credential.
type Credential struct {
	Kind  Kind
	Token string
}

// Result contains information about an authenticated request.
type Result struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Email         string   `json:"email,omitempty"`
	Groups        []string `json:"groups,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	Method        string   `json:"method"` // Which validator accepted the credential
}

// Validator validates a single credential kind. Implementations are pluggable;
// the bundled API-key and JWT validators are reference policies, and a
// production deployment is expected to supply its own (e.g. backed by a key
// store or an identity provider).
type Validator interface {
	// Name returns the human-readable name of this validator.
	Name() string

	// Kind returns the credential kind this validator handles.
	Kind() Kind

	// Validate checks the credential. Returns nil error if it is valid.
	Validate(credential Credential) (*Result, error)
}

// Config holds configuration for the bundled validators.
type Config struct {
	// Master API key for opaque-key auth. Empty disables API-key auth.
	MasterAPIKey string `json:"master_api_key,omitempty"`

	// Minimum accepted API key length.
	MinAPIKeyLength int `json:"min_api_key_length,omitempty"`

	// JWT auth
	JWTSecret    string `json:"jwt_secret,omitempty"`
	JWTAlgorithm string `json:"jwt_algorithm,omitempty"` // HS256, RS256, etc.
}
