package client

import (
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Common sentinel errors
var (
	ErrConnection       = errors.New("connection failure")
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSessionClosed    = errors.New("session is closed")
	ErrTransactionEnded = errors.New("transaction has already been committed or rolled back")
	ErrMalformedToken   = errors.New("malformed bearer token")
)

// wrapConnectivity tags driver connectivity failures with ErrConnection so
// callers can match them with errors.Is. The driver dials lazily, so these
// surface on first session use rather than at connection construction.
// Query-level errors (syntax, constraint violations) pass through untouched.
func wrapConnectivity(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

// IsConnectionError returns true if the error is a connectivity failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}
