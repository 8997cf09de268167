// Command cypherbridge runs a single Cypher query against a configured
// profile, a direct URI, or a throwaway embedded database, and prints the
// records as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dd0wney/cypherbridge/pkg/client"
	"github.com/dd0wney/cypherbridge/pkg/config"
	"github.com/dd0wney/cypherbridge/pkg/harness"
	"github.com/dd0wney/cypherbridge/pkg/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML profile file")
		profile    = flag.String("profile", "", "profile name (default profile when empty)")
		uri        = flag.String("uri", "", "connect directly to this URI, bypassing profiles")
		ephemeral  = flag.Bool("ephemeral", false, "boot a throwaway embedded database")
		query      = flag.String("query", "", "Cypher query to run (required)")
		paramsJSON = flag.String("params", "", "query parameters as a JSON object")
		verbose    = flag.Bool("v", false, "structured logs on stderr")
	)
	flag.Parse()

	if *query == "" {
		flag.Usage()
		os.Exit(2)
	}

	var params map[string]any
	if *paramsJSON != "" {
		if err := json.Unmarshal([]byte(*paramsJSON), &params); err != nil {
			log.Fatalf("Invalid -params: %v", err)
		}
	}

	var logger logging.Logger = logging.NewNopLogger()
	if *verbose {
		logger = logging.NewDefaultLogger()
	}

	ctx := context.Background()

	var conn *client.Connection
	switch {
	case *ephemeral:
		db, err := harness.Provision(client.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to provision ephemeral database: %v", err)
		}
		defer db.Destroy(ctx)
		conn = db.Conn

	case *uri != "":
		var err error
		conn, err = client.Connect(*uri, client.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to connect to %s: %v", *uri, err)
		}
		defer conn.Close(ctx)

	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		conn, err = cfg.Connect(*profile, client.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close(ctx)

	default:
		log.Fatal("One of -config, -uri, or -ephemeral is required")
	}

	sess, err := conn.Session(ctx)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close(ctx)

	records, err := sess.Run(ctx, *query, params)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(rec.AsMap()); err != nil {
			log.Fatalf("Failed to encode record: %v", err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d record(s)\n", len(records))
}
