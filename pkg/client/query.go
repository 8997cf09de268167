package client

import (
	"context"

	"github.com/dd0wney/cypherbridge/pkg/convert"
)

// BoundQuery is a reusable query template: the text is fixed, the session
// and parameters are supplied per run. Pure currying, no extra semantics.
type BoundQuery struct {
	Text string
}

// Prepare creates a bound query from its text.
func Prepare(text string) BoundQuery {
	return BoundQuery{Text: text}
}

// Run executes the query on a session.
func (q BoundQuery) Run(ctx context.Context, s *Session, params map[string]any) ([]convert.Record, error) {
	return s.Run(ctx, q.Text, params)
}

// RunTx executes the query inside a transaction.
func (q BoundQuery) RunTx(ctx context.Context, tx *Transaction, params map[string]any) ([]convert.Record, error) {
	return tx.Run(ctx, q.Text, params)
}
