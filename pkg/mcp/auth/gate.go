package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Gate extracts a credential from an inbound request, classifies it, and
// routes it to the validator registered for its kind.
type Gate struct {
	validators map[Kind]Validator
	logger     *slog.Logger
}

// NewGate creates a new authentication gate. Validators are keyed by the
// credential kind they handle; a credential whose kind has no validator is
// rejected.
func NewGate(validators []Validator, logger *slog.Logger) (gate *Gate) {
	byKind := make(map[Kind]Validator, len(validators))
	for _, v := range validators {
		byKind[v.Kind()] = v
	}

	gate = &Gate{
		validators: byKind,
		logger:     logger,
	}
	return gate
}

// Extract inspects the request headers and returns the classified credential.
// The Authorization bearer scheme is primary; the X-API-Key header is an
// equivalent secondary scheme carrying a raw API key. Returns ErrNoCredential
// when neither is present.
func (g *Gate) Extract(r *http.Request) (credential Credential, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			err = errors.New("invalid Authorization header format (expected: Bearer <token>)")
			return credential, err
		}

		token := strings.TrimSpace(parts[1])
		credential = Credential{
			Kind:  classifyToken(token),
			Token: token,
		}
		return credential, err
	}

	//nolint:canonicalheader // X-API-Key is industry standard, not X-Api-Key
	apiKey := r.Header.Get("X-API-Key")
	if apiKey != "" {
		credential = Credential{
			Kind:  KindAPIKey,
			Token: apiKey,
		}
		return credential, err
	}

	err = ErrNoCredential
	return credential, err
}

// Authenticate extracts, classifies, and validates the request credential.
func (g *Gate) Authenticate(r *http.Request) (result *Result, err error) {
	credential, err := g.Extract(r)
	if err != nil {
		return result, err
	}

	validator, exists := g.validators[credential.Kind]
	if !exists {
		g.logger.Debug("no validator for credential kind",
			slog.String("kind", string(credential.Kind)))
		err = fmt.Errorf("no validator configured for %s credentials", credential.Kind)
		return result, err
	}

	result, err = validator.Validate(credential)
	if err != nil {
		g.logger.Debug("credential validation failed",
			slog.String("validator", validator.Name()),
			slog.String("error", err.Error()))
		return result, err
	}

	g.logger.Debug("credential validated",
		slog.String("validator", validator.Name()),
		slog.String("username", result.Username))
	return result, err
}

// classifyToken decides whether a bearer token is JWT-shaped or an opaque API
// key. A token counts as JWT-shaped only when it has three dot-separated
// segments and the first decodes to a JOSE header with an algorithm, not just
// when it happens to start with a familiar prefix.
func classifyToken(token string) (kind Kind) {
	kind = KindAPIKey

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return kind
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return kind
	}

	var header struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	err = json.Unmarshal(headerBytes, &header)
	if err != nil {
		return kind
	}

	if header.Alg == "" {
		return kind
	}

	if header.Typ != "" && !strings.EqualFold(header.Typ, "JWT") {
		return kind
	}

	kind = KindJWT
	return kind
}
