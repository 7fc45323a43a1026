// Command migrate applies the idempotent schema DDL, split out from the
// main service entrypoint for ops use (e.g. a pre-deploy migration step),
// the same way the teacher splits one-shot maintenance tasks into their own
// cmd/ binary (cmd/api_key_gen/main.go) instead of folding them into
// cmd/server.
package main

import (
	"context"
	"log"

	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: loading config: %v", err)
	}

	if err := db.InitPostgres(cfg); err != nil {
		log.Fatalf("migrate: connecting to postgres: %v", err)
	}

	if err := db.Bootstrap(context.Background(), db.DB); err != nil {
		log.Fatalf("migrate: applying schema: %v", err)
	}

	log.Println("migrate: schema up to date")
}
