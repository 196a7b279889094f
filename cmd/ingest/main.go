// ingest carga fuentes de registros crudos en el catálogo persistido.
//
// Uso:
//
//	go run ./cmd/ingest batch --confidence curated_registry planilla.json
//	go run ./cmd/ingest reseed fuentes.yaml
//	go run ./cmd/ingest check
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
