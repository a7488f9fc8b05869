package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ticketwise/backend/internal/queue"
	mid "github.com/ticketwise/backend/internal/server/middleware"
	"github.com/ticketwise/backend/internal/storage"
	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/ai"
	"github.com/ticketwise/backend/pkg/corpus"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/resolver"
	"github.com/ticketwise/backend/pkg/store"
	pgxstore "github.com/ticketwise/backend/pkg/store/pgx"
	"github.com/ticketwise/backend/pkg/ticket"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	runMigrations(databaseURL)

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Invalid database url", "err", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, []string{queue.RebuildQueue}); err != nil {
		logger.Fatal("Failed to setup queues", "err", err)
	}

	s3Client := storage.NewS3Client(ctx)

	aiClient := mid.NewAIClientFromEnv()
	ticketStore := pgxstore.NewTicketDBStore(conn)

	res, err := resolver.New(aiClient, resolver.DefaultConfig())
	if err != nil {
		logger.Fatal("Failed to create resolver", "err", err)
	}

	go publishInitialSnapshot(ctx, res, aiClient, ticketStore)

	e.Use(mid.AppContextMiddleware(conn, ch, s3Client, aiClient, res, ticketStore))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("50M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func runMigrations(databaseURL string) {
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		logger.Fatal("Failed to init migrations", "err", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

// publishInitialSnapshot restores the last built corpus so the process
// serves matches immediately after a restart. Sources in order: the
// ticket store (tickets with embeddings), then the persisted index
// artifact combined with a local corpus file, then a full rebuild from
// the corpus file. Failing all, the process starts with an empty corpus
// until the first rebuild.
func publishInitialSnapshot(
	ctx context.Context,
	res *resolver.Resolver,
	aiClient ai.TicketAIClient,
	ticketStore store.TicketStore,
) {
	modelVersion := util.GetEnv("AI_EMBED_MODEL")
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", 384))

	records, err := ticketStore.LoadAll(ctx, modelVersion)
	if err != nil {
		logger.Warn("Failed to load persisted corpus", "err", err)
	}
	if len(records) > 0 {
		tickets := make([]ticket.Ticket, 0, len(records))
		vectors := make([][]float32, 0, len(records))
		for _, r := range records {
			tickets = append(tickets, r.Ticket)
			vectors = append(vectors, r.Embedding)
		}
		snap, err := resolver.BuildSnapshotFromVectors(modelVersion, hnsw.DefaultConfig(dim), tickets, vectors)
		if err != nil {
			logger.Error("Failed to rebuild index from persisted corpus", "err", err)
			return
		}
		res.Publish(snap)
		return
	}

	corpusPath := util.GetEnv("CORPUS_PATH")
	if corpusPath == "" {
		logger.Info("No persisted corpus found, serving empty index until first rebuild")
		return
	}

	artifactPath := util.GetEnvString("INDEX_ARTIFACT_PATH", "ticket_index.bin")
	tickets, err := corpus.LoadFile(corpusPath)
	if err != nil {
		logger.Error("Failed to load corpus file", "path", corpusPath, "err", err)
		return
	}
	snap, err := resolver.LoadSnapshot(artifactPath, modelVersion, tickets)
	if err != nil {
		logger.Warn("Failed to load index artifact, rebuilding from corpus", "err", err)
		snap, err = queue.RebuildCorpus(ctx, nil, aiClient, ticketStore, queue.RebuildMsg{Source: "file", Key: corpusPath})
		if err != nil {
			logger.Error("Failed to build initial snapshot", "err", err)
			return
		}
	}
	res.Publish(snap)
}
