package client

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// checkToken verifies that a bearer token is a structurally valid JWT so
// garbage fails fast at construction instead of as an opaque auth error on
// first use. No signature verification happens here.
func checkToken(token string) error {
	if token == "" {
		return ErrMalformedToken
	}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, jwt.MapClaims{}); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return nil
}
