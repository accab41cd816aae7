package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JWTValidator validates JWT bearer tokens: signature, algorithm, and expiry.
type JWTValidator struct {
	secret    []byte
	algorithm string
}

// NewJWTValidator creates a new JWT validator.
func NewJWTValidator(secret []byte, algorithm string) (validator *JWTValidator, err error) {
	if len(secret) == 0 {
		err = errors.New("JWT secret is required")
		return validator, err
	}

	if algorithm == "" {
		algorithm = "HS256" // Default to HS256
	}

	validator = &JWTValidator{
		secret:    secret,
		algorithm: algorithm,
	}
	return validator, err
}

// Name returns the validator name.
func (v *JWTValidator) Name() (name string) {
	name = "jwt"
	return name
}

// Kind returns the credential kind this validator handles.
func (v *JWTValidator) Kind() (kind Kind) {
	kind = KindJWT
	return kind
}

// Validate parses and verifies the JWT.
//
//nolint:gocognit // JWT validation requires multiple validation steps
func (v *JWTValidator) Validate(credential Credential) (result *Result, err error) {
	var token *jwt.Token
	token, err = jwt.Parse(credential.Token, func(token *jwt.Token) (key interface{}, keyErr error) {
		// Verify signing method matches expected algorithm
		expectedMethod := jwt.GetSigningMethod(v.algorithm)
		if expectedMethod == nil {
			keyErr = fmt.Errorf("unsupported signing algorithm: %s", v.algorithm)
			return key, keyErr
		}

		if token.Method.Alg() != expectedMethod.Alg() {
			keyErr = fmt.Errorf("unexpected signing method: %v (expected: %s)", token.Header["alg"], v.algorithm)
			return key, keyErr
		}

		key = v.secret
		return key, keyErr
	})

	if err != nil {
		err = fmt.Errorf("token validation failed: %w", err)
		return result, err
	}

	if !token.Valid {
		err = errors.New("token is invalid")
		return result, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		err = errors.New("invalid token claims format")
		return result, err
	}

	// Validate expiration
	if exp, expOK := claims["exp"].(float64); expOK {
		if time.Unix(int64(exp), 0).Before(time.Now()) {
			err = errors.New("token has expired")
			return result, err
		}
	}

	// Extract user information
	result = &Result{
		Authenticated: true,
		Method:        v.Name(),
	}

	if sub, subOK := claims["sub"].(string); subOK {
		result.Subject = sub
		result.Username = sub // Use subject as username by default
	}

	if username, usernameOK := claims["username"].(string); usernameOK {
		result.Username = username
	}

	if email, emailOK := claims["email"].(string); emailOK {
		result.Email = email
	}

	// Extract groups if present
	if groupsRaw, groupsOK := claims["groups"]; groupsOK {
		switch groups := groupsRaw.(type) {
		case []string:
			result.Groups = groups
		case []interface{}:
			for _, g := range groups {
				if groupStr, groupStrOK := g.(string); groupStrOK {
					result.Groups = append(result.Groups, groupStr)
				}
			}
		}
	}

	return result, err
}
