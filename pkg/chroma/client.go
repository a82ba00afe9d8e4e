package chroma

import (
	"context"
	"fmt"
	"os"

	"outreach-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	"github.com/sirupsen/logrus"
)

const collectionName = "outreach_emails"

// maxDocumentChars keeps documents inside the embedding model's token limit.
const maxDocumentChars = 10000

// ChromaClient stores sent outreach emails so that later drafts can be
// written in the same voice as the ones that already went out.
type ChromaClient struct {
	client     chroma.Client
	embedFunc  *gemini.GeminiEmbeddingFunction
	collection chroma.Collection
}

func NewChromaClient(cfg *config.Config) (*ChromaClient, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}

	if cfg.GeminiApiKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else if cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		context.Background(),
		collectionName,
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	logrus.WithField("collection", collectionName).Info("Initialized Chroma style index")

	return &ChromaClient{
		client:     client,
		embedFunc:  embedFunc,
		collection: collection,
	}, nil
}

// StyleDocument renders a sent email as the text that gets embedded.
func StyleDocument(subject, body string) string {
	text := fmt.Sprintf("Subject: %s\n\nBody: %s", subject, body)
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}
	return text
}

// UpsertSentEmail indexes a sent email under its suggested email ID, so
// re-indexing the same email replaces it instead of duplicating it.
func (c *ChromaClient) UpsertSentEmail(ctx context.Context, suggestedEmailID, brokerID, template, tone, subject, body string) error {
	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"broker_id":          brokerID,
		"suggested_email_id": suggestedEmailID,
		"template":           template,
		"tone":               tone,
		"subject":            subject,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(suggestedEmailID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(StyleDocument(subject, body)),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sent email: %w", err)
	}
	return nil
}

// SimilarEmails returns the IDs of indexed emails written for the same
// template, closest to query first.
func (c *ChromaClient) SimilarEmails(ctx context.Context, template, query string, limit int) ([]string, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection is nil")
	}

	results, err := c.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(chroma.EqString("template", template)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []string{}, nil
	}

	idGroups := results.GetIDGroups()
	if len(idGroups) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		ids = append(ids, string(id))
	}
	return ids, nil
}

func (c *ChromaClient) DeleteSentEmail(ctx context.Context, suggestedEmailID string) error {
	err := c.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(suggestedEmailID)))
	if err != nil {
		return fmt.Errorf("failed to delete sent email: %w", err)
	}
	return nil
}
