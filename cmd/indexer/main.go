// Command indexer builds a ticket index artifact from a corpus file in
// one shot. Useful for seeding deployments without a running worker.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ticketwise/backend/internal/server/middleware"
	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/corpus"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/logger/console"
	"github.com/ticketwise/backend/pkg/resolver"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	corpusPath := flag.String("corpus", "", "path to the corpus file (csv, xlsx or json)")
	outPath := flag.String("out", "ticket_index.bin", "path of the index artifact to write")
	flag.Parse()

	if *corpusPath == "" {
		logger.Fatal("Missing -corpus flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickets, err := corpus.LoadFile(*corpusPath)
	if err != nil {
		logger.Fatal("Failed to load corpus", "path", *corpusPath, "err", err)
	}
	logger.Info("Corpus loaded", "path", *corpusPath, "tickets", len(tickets))

	aiClient := middleware.NewAIClientFromEnv()

	modelVersion := util.GetEnv("AI_EMBED_MODEL")
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", 384))

	snap, err := resolver.BuildSnapshot(ctx, aiClient, modelVersion, hnsw.DefaultConfig(dim), tickets)
	if err != nil {
		logger.Fatal("Failed to build index", "err", err)
	}

	if err := snap.Index.SaveFile(*outPath); err != nil {
		logger.Fatal("Failed to write index artifact", "path", *outPath, "err", err)
	}

	logger.Info("Index artifact written", "path", *outPath, "tickets", snap.Size())
}
