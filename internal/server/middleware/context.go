package middleware

import (
	"github.com/ticketwise/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/ticketwise/backend/pkg/ai"
	oai "github.com/ticketwise/backend/pkg/ai/ollama"
	tai "github.com/ticketwise/backend/pkg/ai/openai"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/resolver"
	"github.com/ticketwise/backend/pkg/store"
)

type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	S3       *s3.Client
	AiClient ai.TicketAIClient
	Resolver *resolver.Resolver
	Store    store.TicketStore
}

type AppContext struct {
	echo.Context
	App *App
}

// NewAIClientFromEnv builds the configured AI adapter. AI_ADAPTER selects
// "ollama" or the OpenAI-compatible default.
func NewAIClientFromEnv() ai.TicketAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewTicketOllamaClient(oai.NewTicketOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
			RequestTimeoutMin:     int64(util.GetEnvNumeric("AI_REQUEST_TIMEOUT_MIN", 5)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return tai.NewTicketOpenAIClient(tai.NewTicketOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			CompletionModel: util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
			RequestTimeoutMin:     int64(util.GetEnvNumeric("AI_REQUEST_TIMEOUT_MIN", 5)),
		})
	}
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	s3Client *s3.Client,
	aiClient ai.TicketAIClient,
	res *resolver.Resolver,
	ticketStore store.TicketStore,
) echo.MiddlewareFunc {
	app := &App{
		DBConn:   db,
		Queue:    queue,
		S3:       s3Client,
		AiClient: aiClient,
		Resolver: res,
		Store:    ticketStore,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
