package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cypherbridge/pkg/convert"
	"github.com/dd0wney/cypherbridge/pkg/logging"
	"github.com/dd0wney/cypherbridge/pkg/metrics"
)

// Session is a transient query handle obtained from a Connection. Sessions
// are for single-owner sequential use; concurrent use from multiple
// goroutines requires distinct sessions.
type Session struct {
	id      string
	bolt    neo4j.SessionWithContext
	engine  Engine
	log     logging.Logger
	metrics *metrics.Registry
	closed  bool
}

// Session opens a new session on the connection.
func (c *Connection) Session(ctx context.Context) (*Session, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}

	s := &Session{
		id:      uuid.NewString(),
		engine:  c.engine,
		metrics: c.metrics,
	}
	s.log = c.log.With(logging.SessionID(s.id))

	if c.engine == nil {
		s.bolt = c.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: c.database,
		})
	}

	c.metrics.SessionsOpen.Inc()
	s.log.Debug("session opened", logging.Component("client"))
	return s, nil
}

// ID returns the session's correlation ID.
func (s *Session) ID() string {
	return s.id
}

// Close releases the session. Safe to call once per session; held by a
// defer in typical use.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.metrics.SessionsOpen.Dec()
	s.log.Debug("session closed", logging.Component("client"))

	if s.bolt != nil {
		return s.bolt.Close(ctx)
	}
	return nil
}

// Run executes a parameterized query and blocks until the full result is
// materialized and converted. Parameters are normalized first; an
// unsupported parameter type fails before anything reaches the backend.
func (s *Session) Run(ctx context.Context, cypher string, params map[string]any) ([]convert.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	return run(ctx, s, cypher, params)
}

// backendRunner abstracts the raw query surface shared by sessions and
// transactions so both use the same normalize/execute/convert path.
type backendRunner interface {
	backend() string
	logger() logging.Logger
	registry() *metrics.Registry
	runBolt(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)
	runEmbedded(ctx context.Context, cypher string, params map[string]any) ([]string, [][]any, error)
	isEmbedded() bool
}

func (s *Session) backend() string {
	if s.engine != nil {
		return "embedded"
	}
	return "bolt"
}

func (s *Session) logger() logging.Logger       { return s.log }
func (s *Session) registry() *metrics.Registry  { return s.metrics }
func (s *Session) isEmbedded() bool             { return s.engine != nil }

func (s *Session) runBolt(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
	return s.bolt.Run(ctx, cypher, params)
}

func (s *Session) runEmbedded(ctx context.Context, cypher string, params map[string]any) ([]string, [][]any, error) {
	return s.engine.Execute(ctx, cypher, params)
}

// run is the single execution path for sessions and transactions.
func run(ctx context.Context, r backendRunner, cypher string, params map[string]any) ([]convert.Record, error) {
	start := time.Now()
	reg := r.registry()

	native, err := convert.Parameters(params)
	if err != nil {
		reg.ParameterRejectionsTotal.Inc()
		return nil, err
	}

	var records []convert.Record
	if r.isEmbedded() {
		columns, rows, err := r.runEmbedded(ctx, cypher, native)
		if err != nil {
			reg.RecordQuery(r.backend(), "error", time.Since(start))
			return nil, err
		}
		records, err = convert.FromRows(columns, rows)
		if err != nil {
			reg.ConversionFailuresTotal.Inc()
			reg.RecordQuery(r.backend(), "error", time.Since(start))
			return nil, err
		}
	} else {
		result, err := r.runBolt(ctx, cypher, native)
		if err != nil {
			reg.RecordQuery(r.backend(), "error", time.Since(start))
			return nil, wrapConnectivity(err)
		}
		raw, err := result.Collect(ctx)
		if err != nil {
			reg.RecordQuery(r.backend(), "error", time.Since(start))
			return nil, wrapConnectivity(err)
		}
		records, err = convert.FromRecords(raw)
		if err != nil {
			reg.ConversionFailuresTotal.Inc()
			reg.RecordQuery(r.backend(), "error", time.Since(start))
			return nil, err
		}
	}

	elapsed := time.Since(start)
	reg.RecordQuery(r.backend(), "ok", elapsed)
	r.logger().Debug("query executed",
		logging.Query(cypher),
		logging.Records(len(records)),
		logging.Latency(elapsed),
	)
	return records, nil
}
