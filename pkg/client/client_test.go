package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dd0wney/cypherbridge/pkg/convert"
	"github.com/dd0wney/cypherbridge/pkg/logging"
	"github.com/dd0wney/cypherbridge/pkg/metrics"
)

// stubEngine is an in-memory Engine that records calls and replays canned
// results, so the facade can be tested without any database.
type stubEngine struct {
	mu      sync.Mutex
	calls   []string
	params  []map[string]any
	columns []string
	rows    [][]any
	err     error
}

func (e *stubEngine) Execute(_ context.Context, cypher string, params map[string]any) ([]string, [][]any, error) {
	e.mu.Lock()
	e.calls = append(e.calls, cypher)
	e.params = append(e.params, params)
	e.mu.Unlock()
	if e.err != nil {
		return nil, nil, e.err
	}
	return e.columns, e.rows, nil
}

func newTestConnection(eng Engine) *Connection {
	return NewEmbeddedConnection(eng, "bolt://localhost:7687", nil,
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
	)
}

func TestConnectionExposesConfiguredLoggerAndMetrics(t *testing.T) {
	log := logging.NewNopLogger()
	reg := metrics.NewRegistry()
	conn := NewEmbeddedConnection(&stubEngine{}, "bolt://localhost:7687", nil,
		WithLogger(log),
		WithMetrics(reg),
	)

	if conn.Logger() != log {
		t.Error("Logger() should return the configured logger")
	}
	if conn.Metrics() != reg {
		t.Error("Metrics() should return the configured registry")
	}
}

func TestSession_Run(t *testing.T) {
	eng := &stubEngine{
		columns: []string{"name", "age"},
		rows:    [][]any{{"alice", int64(30)}},
	}
	conn := newTestConnection(eng)
	ctx := context.Background()

	sess, err := conn.Session(ctx)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close(ctx)

	records, err := sess.Run(ctx, "MATCH (n:Person) RETURN n.name, n.age", map[string]any{"limit": 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	name, _ := records[0].Get("name")
	if name != "alice" {
		t.Errorf("Expected name 'alice', got %v", name)
	}

	if len(eng.calls) != 1 {
		t.Fatalf("Expected 1 engine call, got %d", len(eng.calls))
	}
	// Parameter normalization happens before the engine sees anything.
	if eng.params[0]["limit"] != int64(10) {
		t.Errorf("Expected normalized limit int64(10), got %T", eng.params[0]["limit"])
	}
}

func TestSession_RunRejectsUnsupportedParamsBeforeEngine(t *testing.T) {
	eng := &stubEngine{}
	conn := newTestConnection(eng)
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, "RETURN $cb", map[string]any{"cb": func() {}})
	if err == nil {
		t.Fatal("Expected parameter rejection")
	}
	if !errors.Is(err, convert.ErrUnsupportedParameter) {
		t.Errorf("Expected ErrUnsupportedParameter, got %v", err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("Rejected parameters must not reach the engine, got %d calls", len(eng.calls))
	}
}

func TestSession_RunPassesThroughEngineErrors(t *testing.T) {
	queryErr := errors.New("Invalid input 'MTCH'")
	eng := &stubEngine{err: queryErr}
	conn := newTestConnection(eng)
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, "MTCH (n) RETURN n", nil)
	if !errors.Is(err, queryErr) {
		t.Errorf("Expected unwrapped engine error, got %v", err)
	}
}

func TestSession_RunAfterClose(t *testing.T) {
	conn := newTestConnection(&stubEngine{})
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	sess.Close(ctx)

	if _, err := sess.Run(ctx, "RETURN 1", nil); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
}

func TestConnection_SessionAfterClose(t *testing.T) {
	conn := newTestConnection(&stubEngine{})
	ctx := context.Background()

	conn.Close(ctx)
	if _, err := conn.Session(ctx); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestConnection_CloseRunsTeardown(t *testing.T) {
	torn := 0
	conn := NewEmbeddedConnection(&stubEngine{}, "bolt://localhost:9999",
		func(context.Context) error { torn++; return nil },
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
	)

	if !conn.IsEphemeral() {
		t.Error("Connection with teardown should be ephemeral")
	}

	ctx := context.Background()
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if torn != 1 {
		t.Errorf("Expected teardown once, ran %d times", torn)
	}

	// Second close is a no-op; teardown must not run again.
	conn.Close(ctx)
	if torn != 1 {
		t.Errorf("Teardown ran again on double close: %d times", torn)
	}
}

func TestTransaction_CommitIsTerminal(t *testing.T) {
	conn := newTestConnection(&stubEngine{columns: []string{"v"}, rows: [][]any{{int64(1)}}})
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	tx, err := sess.BeginTransaction(ctx)
	if err != nil {
		t.Fatalf("BeginTransaction failed: %v", err)
	}

	if _, err := tx.Run(ctx, "CREATE (n:Test)", nil); err != nil {
		t.Fatalf("Run in tx failed: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !tx.Closed() {
		t.Error("Transaction should be closed after commit")
	}

	if err := tx.Commit(ctx); !errors.Is(err, ErrTransactionEnded) {
		t.Errorf("Expected ErrTransactionEnded on double commit, got %v", err)
	}
	if _, err := tx.Run(ctx, "RETURN 1", nil); !errors.Is(err, ErrTransactionEnded) {
		t.Errorf("Expected ErrTransactionEnded on run after commit, got %v", err)
	}
}

func TestTransaction_CloseRollsBack(t *testing.T) {
	conn := newTestConnection(&stubEngine{})
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	tx, _ := sess.BeginTransaction(ctx)
	if err := tx.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !tx.Closed() {
		t.Error("Transaction should be closed after Close")
	}
	// Close after terminal state is a no-op.
	if err := tx.Close(ctx); err != nil {
		t.Errorf("Second Close should be nil, got %v", err)
	}
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	eng := &stubEngine{columns: []string{"v"}, rows: [][]any{{int64(1)}}}
	conn := newTestConnection(eng)
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	var seen *Transaction
	err := WithTransaction(ctx, sess, func(tx *Transaction) error {
		seen = tx
		_, err := tx.Run(ctx, "CREATE (n:Test {v: $v})", map[string]any{"v": 1})
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}
	if !seen.Closed() {
		t.Error("Transaction should be closed after scoped helper")
	}
}

func TestWithTransaction_ClosesOnBodyError(t *testing.T) {
	conn := newTestConnection(&stubEngine{})
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	bodyErr := errors.New("body failed")
	var seen *Transaction
	err := WithTransaction(ctx, sess, func(tx *Transaction) error {
		seen = tx
		return bodyErr
	})

	if !errors.Is(err, bodyErr) {
		t.Errorf("Expected body error, got %v", err)
	}
	if !seen.Closed() {
		t.Error("Transaction must be closed when the body fails")
	}
}

func TestWithTransaction_ClosesOnPanic(t *testing.T) {
	conn := newTestConnection(&stubEngine{})
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	var seen *Transaction
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Expected panic to propagate")
			}
		}()
		WithTransaction(ctx, sess, func(tx *Transaction) error {
			seen = tx
			panic("boom")
		})
	}()

	if !seen.Closed() {
		t.Error("Transaction must be closed when the body panics")
	}
}

func TestBoundQuery(t *testing.T) {
	eng := &stubEngine{columns: []string{"v"}, rows: [][]any{{int64(42)}}}
	conn := newTestConnection(eng)
	ctx := context.Background()

	sess, _ := conn.Session(ctx)
	defer sess.Close(ctx)

	byID := Prepare("MATCH (n) WHERE n.id = $id RETURN n.v")

	records, err := byID.Run(ctx, sess, map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("BoundQuery run failed: %v", err)
	}
	v, _ := records[0].Get("v")
	if v != int64(42) {
		t.Errorf("Expected 42, got %v", v)
	}
	if eng.calls[0] != byID.Text {
		t.Errorf("Expected query text %q, got %q", byID.Text, eng.calls[0])
	}

	// Same template, different parameters.
	if _, err := byID.Run(ctx, sess, map[string]any{"id": 8}); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if eng.params[1]["id"] != int64(8) {
		t.Errorf("Expected id 8 on second run, got %v", eng.params[1]["id"])
	}
}

func TestConnectWithToken_RejectsMalformedToken(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b"} {
		_, err := ConnectWithToken("bolt://localhost:7687", token)
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Token %q: expected ErrMalformedToken, got %v", token, err)
		}
	}
}

func TestConnect_LazyDialing(t *testing.T) {
	// Nothing listens here; construction still succeeds because the driver
	// dials lazily.
	conn, err := Connect("bolt://localhost:1",
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("Connect should not dial eagerly: %v", err)
	}
	defer conn.Close(context.Background())

	if conn.URI() != "bolt://localhost:1" {
		t.Errorf("Unexpected URI %q", conn.URI())
	}
	if conn.IsEphemeral() {
		t.Error("Remote connection should not be ephemeral")
	}
}

func TestConnect_InvalidScheme(t *testing.T) {
	if _, err := Connect("totally wrong"); err == nil {
		t.Error("Expected error for invalid URI")
	}
}

func TestDistinctSessionsForConcurrentUse(t *testing.T) {
	conn := newTestConnection(&stubEngine{columns: []string{"v"}, rows: [][]any{{int64(1)}}})
	ctx := context.Background()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			sess, err := conn.Session(ctx)
			if err != nil {
				done <- err
				return
			}
			defer sess.Close(ctx)
			_, err = sess.Run(ctx, fmt.Sprintf("RETURN %d", i), nil)
			done <- err
		}(i)
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Errorf("Distinct sessions should work concurrently: %v", err)
		}
	}
}
