package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticketwise/backend/internal/storage"
	"github.com/ticketwise/backend/internal/util"
	"github.com/ticketwise/backend/pkg/ai"
	"github.com/ticketwise/backend/pkg/corpus"
	"github.com/ticketwise/backend/pkg/hnsw"
	"github.com/ticketwise/backend/pkg/logger"
	"github.com/ticketwise/backend/pkg/resolver"
	"github.com/ticketwise/backend/pkg/store"
	"github.com/ticketwise/backend/pkg/ticket"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RebuildMsg is the payload of a corpus rebuild job. Source selects where
// the corpus file lives; Key is an object key for "s3" and a local path
// for "file".
type RebuildMsg struct {
	Source string `json:"source"` // "s3" or "file"
	Key    string `json:"key"`
}

// ProcessRebuild handles one rebuild job from the queue. The serving
// process picks the new corpus up on its next load.
func ProcessRebuild(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.TicketAIClient,
	ticketStore store.TicketStore,
	body string,
) error {
	var msg RebuildMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("unmarshal rebuild message: %w", err)
	}

	_, err := RebuildCorpus(ctx, s3Client, aiClient, ticketStore, msg)
	return err
}

// RebuildCorpus fetches the corpus named by msg, builds a fresh snapshot
// and persists it (ticket store and index artifact). The built snapshot
// is returned so a serving process can publish it immediately.
func RebuildCorpus(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.TicketAIClient,
	ticketStore store.TicketStore,
	msg RebuildMsg,
) (*resolver.Snapshot, error) {
	if msg.Key == "" {
		return nil, fmt.Errorf("rebuild message has no corpus key")
	}

	tickets, err := fetchCorpus(ctx, s3Client, msg)
	if err != nil {
		return nil, err
	}
	logger.Info("[Queue] Corpus loaded", "source", msg.Source, "key", msg.Key, "tickets", len(tickets))

	modelVersion := util.GetEnv("AI_EMBED_MODEL")
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", 384))

	snap, err := resolver.BuildSnapshot(ctx, aiClient, modelVersion, hnsw.DefaultConfig(dim), tickets)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	if ticketStore != nil {
		records := make([]store.Record, 0, len(tickets))
		for _, t := range tickets {
			vec, ok := snap.Index.Vector(t.ID)
			if !ok {
				return nil, fmt.Errorf("missing vector for ticket %s", t.ID)
			}
			records = append(records, store.Record{Ticket: t, Embedding: vec})
		}
		if err := ticketStore.ReplaceAll(ctx, modelVersion, records); err != nil {
			return nil, fmt.Errorf("persist corpus: %w", err)
		}
	}

	artifactPath := util.GetEnvString("INDEX_ARTIFACT_PATH", "ticket_index.bin")
	if err := snap.Index.SaveFile(artifactPath); err != nil {
		return nil, fmt.Errorf("persist index artifact: %w", err)
	}

	logger.Info("[Queue] Rebuild complete", "tickets", snap.Size(), "artifact", artifactPath)
	return snap, nil
}

func fetchCorpus(ctx context.Context, s3Client *s3.Client, msg RebuildMsg) ([]ticket.Ticket, error) {
	switch msg.Source {
	case "s3":
		if s3Client == nil {
			return nil, fmt.Errorf("s3 source requested but no s3 client configured")
		}
		content, err := storage.GetFile(ctx, s3Client, msg.Key)
		if err != nil {
			return nil, err
		}
		return corpus.Parse(msg.Key, content)
	case "file", "":
		return corpus.LoadFile(msg.Key)
	default:
		return nil, fmt.Errorf("unknown corpus source %q", msg.Source)
	}
}
