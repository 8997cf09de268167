package client

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cypherbridge/pkg/convert"
	"github.com/dd0wney/cypherbridge/pkg/logging"
	"github.com/dd0wney/cypherbridge/pkg/metrics"
)

// Transaction is an explicit transaction obtained from a Session. It must
// reach exactly one terminal state: Commit, Rollback, or Close (which rolls
// back if no terminal call happened yet).
//
// For embedded engines the terminal calls map onto the engine's own
// semantics: NornicDB applies statements eagerly and acknowledges rollback
// without undo, so Rollback on an embedded transaction is an
// acknowledgement, not a revert.
type Transaction struct {
	sess  *Session
	bolt  neo4j.ExplicitTransaction
	ended bool
}

// BeginTransaction opens an explicit transaction on the session.
func (s *Session) BeginTransaction(ctx context.Context) (*Transaction, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	t := &Transaction{sess: s}
	if s.engine == nil {
		tx, err := s.bolt.BeginTransaction(ctx)
		if err != nil {
			return nil, wrapConnectivity(err)
		}
		t.bolt = tx
	}

	s.log.Debug("transaction started", logging.Component("client"))
	return t, nil
}

// Run executes a query inside the transaction.
func (t *Transaction) Run(ctx context.Context, cypher string, params map[string]any) ([]convert.Record, error) {
	if t.ended {
		return nil, ErrTransactionEnded
	}
	return run(ctx, t, cypher, params)
}

// Commit makes the transaction's effects permanent.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.ended {
		return ErrTransactionEnded
	}
	t.ended = true
	t.sess.metrics.RecordTransaction("commit")

	if t.bolt != nil {
		return wrapConnectivity(t.bolt.Commit(ctx))
	}
	// Embedded engine commits each statement eagerly; nothing left to do.
	return nil
}

// Rollback discards the transaction. On the embedded backend this is an
// acknowledgement only (statements were applied eagerly by the engine).
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.ended {
		return ErrTransactionEnded
	}
	t.ended = true
	t.sess.metrics.RecordTransaction("rollback")

	if t.bolt != nil {
		return wrapConnectivity(t.bolt.Rollback(ctx))
	}
	t.sess.log.Warn("embedded engine acknowledges rollback without undo")
	return nil
}

// Close releases the transaction, rolling back if no terminal call was
// made. Idempotent after a terminal call.
func (t *Transaction) Close(ctx context.Context) error {
	if t.ended {
		return nil
	}
	return t.Rollback(ctx)
}

// Closed reports whether the transaction reached a terminal state.
func (t *Transaction) Closed() bool {
	return t.ended
}

func (t *Transaction) backend() string            { return t.sess.backend() }
func (t *Transaction) logger() logging.Logger     { return t.sess.log }
func (t *Transaction) registry() *metrics.Registry { return t.sess.metrics }
func (t *Transaction) isEmbedded() bool           { return t.sess.engine != nil }

func (t *Transaction) runBolt(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
	return t.bolt.Run(ctx, cypher, params)
}

func (t *Transaction) runEmbedded(ctx context.Context, cypher string, params map[string]any) ([]string, [][]any, error) {
	return t.sess.engine.Execute(ctx, cypher, params)
}

// WithTransaction runs body inside a transaction and guarantees the
// transaction is closed on every exit path: commit on nil error, rollback
// on error, rollback via the deferred Close on panic.
func WithTransaction(ctx context.Context, s *Session, body func(*Transaction) error) error {
	tx, err := s.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer tx.Close(ctx)

	if err := body(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, ErrTransactionEnded) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
