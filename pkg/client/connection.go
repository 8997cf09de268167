// Package client is a thin convenience layer over the Neo4j Bolt driver:
// connection construction, session and transaction helpers, and result
// conversion into plain Go values. Protocol, transaction semantics and
// storage are owned entirely by the underlying driver or embedded engine.
package client

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cypherbridge/pkg/logging"
	"github.com/dd0wney/cypherbridge/pkg/metrics"
)

// Engine is the in-process query surface of an embedded database. Ephemeral
// connections route queries through it instead of the network driver.
type Engine interface {
	Execute(ctx context.Context, cypher string, params map[string]any) (columns []string, rows [][]any, err error)
}

// Connection is a handle to a graph database, remote or embedded. It owns
// the underlying driver handle and, for ephemeral instances, the teardown
// callback that destroys the database.
type Connection struct {
	uri      string
	database string
	driver   neo4j.DriverWithContext
	engine   Engine
	teardown func(context.Context) error
	log      logging.Logger
	metrics  *metrics.Registry
	closed   bool
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the structured logger used by the connection and every
// session opened from it.
func WithLogger(l logging.Logger) Option {
	return func(c *Connection) { c.log = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Connection) { c.metrics = r }
}

// WithDatabase selects a named database for sessions opened from this
// connection. Empty means the server default.
func WithDatabase(name string) Option {
	return func(c *Connection) { c.database = name }
}

// Connect creates a connection without credentials. The driver dials
// lazily: reachability and auth failures surface on first session use, not
// here.
func Connect(uri string, opts ...Option) (*Connection, error) {
	return connect(uri, neo4j.NoAuth(), opts...)
}

// ConnectWithAuth creates a connection with basic authentication.
func ConnectWithAuth(uri, username, password string, opts ...Option) (*Connection, error) {
	return connect(uri, neo4j.BasicAuth(username, password, ""), opts...)
}

// ConnectWithToken creates a connection with bearer-token authentication.
// The token must be a structurally valid JWT; signature verification is the
// server's job.
func ConnectWithToken(uri, token string, opts ...Option) (*Connection, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	return connect(uri, neo4j.BearerAuth(token), opts...)
}

func connect(uri string, auth neo4j.AuthToken, opts ...Option) (*Connection, error) {
	c := &Connection{
		uri:     uri,
		log:     logging.NewDefaultLogger(),
		metrics: metrics.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("create driver for %s: %w", uri, err)
	}
	c.driver = driver

	c.log.Debug("connection created", logging.Component("client"), logging.URI(uri))
	return c, nil
}

// NewEmbeddedConnection wraps an in-process engine in a Connection. uri is
// descriptive (the bolt-style address the engine was configured with);
// teardown destroys the engine and its storage. Used by the harness package.
func NewEmbeddedConnection(engine Engine, uri string, teardown func(context.Context) error, opts ...Option) *Connection {
	c := &Connection{
		uri:      uri,
		engine:   engine,
		teardown: teardown,
		log:      logging.NewDefaultLogger(),
		metrics:  metrics.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log.Debug("embedded connection created", logging.Component("client"), logging.URI(uri))
	return c
}

// URI returns the address this connection points at.
func (c *Connection) URI() string {
	return c.uri
}

// Logger returns the structured logger this connection was configured with.
func (c *Connection) Logger() logging.Logger {
	return c.log
}

// Metrics returns the metrics registry this connection reports to.
func (c *Connection) Metrics() *metrics.Registry {
	return c.metrics
}

// IsEphemeral returns true if the connection has an attached teardown.
func (c *Connection) IsEphemeral() bool {
	return c.teardown != nil
}

// Close releases the driver handle and, for ephemeral connections, runs the
// teardown callback. Calling Close more than once is the caller's
// responsibility to avoid; the second call is a no-op for the driver but
// teardown behavior is undefined.
func (c *Connection) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.driver != nil {
		if err := c.driver.Close(ctx); err != nil {
			return fmt.Errorf("close driver: %w", err)
		}
	}
	if c.teardown != nil {
		if err := c.teardown(ctx); err != nil {
			return fmt.Errorf("teardown: %w", err)
		}
	}
	c.log.Debug("connection closed", logging.Component("client"), logging.URI(c.uri))
	return nil
}
