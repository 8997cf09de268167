// Package harness provisions disposable embedded databases for isolated
// testing. Each ephemeral database lives in its own temp directory, is
// reachable through a standard Connection, and is destroyed — data
// included — by a single teardown call.
package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	nornicdb "github.com/orneryd/nornicdb/pkg/nornicdb"

	"github.com/dd0wney/cypherbridge/pkg/client"
	"github.com/dd0wney/cypherbridge/pkg/logging"
)

// ErrProvision indicates ephemeral setup failed (port, directory, or
// engine boot).
var ErrProvision = errors.New("ephemeral provisioning failed")

// EphemeralDB pairs a Connection to a freshly provisioned embedded
// database with the teardown that destroys it. Destroy must be called at
// most once; a second call is undefined and is the caller's
// responsibility to avoid.
type EphemeralDB struct {
	Conn    *client.Connection
	DataDir string
	Port    int
}

// embeddedEngine adapts the NornicDB embedded API to the client's Engine
// interface.
type embeddedEngine struct {
	db *nornicdb.DB
}

func (e *embeddedEngine) Execute(ctx context.Context, cypher string, params map[string]any) ([]string, [][]any, error) {
	result, err := e.db.ExecuteCypher(ctx, cypher, params)
	if err != nil {
		return nil, nil, err
	}
	return result.Columns, result.Rows, nil
}

// Provision boots a disposable embedded database and wraps it in a
// Connection.
//
// The port is picked by binding :0, reading the assigned port back, and
// releasing the listener before the engine binds it. Another process can
// claim the port in that window; the race is inherent to probing and is
// accepted rather than mitigated.
func Provision(opts ...client.Option) (*EphemeralDB, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("%w: probe port: %v", ErrProvision, err)
	}

	dir := newDataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir %s: %v", ErrProvision, dir, err)
	}

	cfg := nornicdb.DefaultConfig()
	// Background behaviors off: test databases need deterministic
	// read-your-writes, not decay simulation or inferred links.
	cfg.DecayEnabled = false
	cfg.AutoLinksEnabled = false
	cfg.AutoEmbedEnabled = false
	cfg.AsyncWritesEnabled = false
	cfg.BoltPort = port
	cfg.HTTPPort = 0

	db, err := nornicdb.Open(dir, cfg)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: boot embedded engine: %v", ErrProvision, err)
	}

	uri := fmt.Sprintf("bolt://localhost:%d", port)

	// The teardown reports to the connection's registry so query and
	// lifecycle metrics land in one place, including when the caller
	// passes WithMetrics.
	var conn *client.Connection
	teardown := func(context.Context) error {
		conn.Metrics().EphemeralTeardownsTotal.Inc()
		if err := db.Close(); err != nil {
			return fmt.Errorf("close embedded engine: %w", err)
		}
		return os.RemoveAll(dir)
	}

	conn = client.NewEmbeddedConnection(&embeddedEngine{db: db}, uri, teardown, opts...)

	conn.Metrics().EphemeralProvisionedTotal.Inc()
	conn.Logger().Info("ephemeral database provisioned",
		logging.Component("harness"),
		logging.URI(uri),
		logging.Port(port),
		logging.DataDir(dir),
	)

	return &EphemeralDB{
		Conn:    conn,
		DataDir: dir,
		Port:    port,
	}, nil
}

// Destroy shuts the embedded database down and deletes its storage
// directory. At most once per EphemeralDB.
func (e *EphemeralDB) Destroy(ctx context.Context) error {
	return e.Conn.Close(ctx)
}

// freePort asks the OS for an unused TCP port and releases it
// immediately.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}

// newDataDir returns a single-use storage path under the system temp
// directory, named by the current time in milliseconds.
func newDataDir() string {
	return filepath.Join(os.TempDir(), strconv.FormatInt(time.Now().UnixMilli(), 10))
}
