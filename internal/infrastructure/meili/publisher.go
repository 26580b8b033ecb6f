// Package meili implements the publishing collaborator: resolved catalog
// items are pushed into a Meilisearch index that the storefront search
// queries. The resolution core never calls outward; main wires this in when
// search publishing is enabled.
package meili

import (
	"context"
	"fmt"
	"log"

	meilisearch "github.com/meilisearch/meilisearch-go"

	"github.com/partlens/backend/internal/domain"
)

// Publisher pushes resolution results into a Meilisearch index
type Publisher struct {
	client    meilisearch.ServiceManager
	indexName string
}

// NewPublisher creates a publisher for the given Meilisearch instance
func NewPublisher(baseURL, apiKey, indexName string) *Publisher {
	return &Publisher{
		client:    meilisearch.New(baseURL, meilisearch.WithAPIKey(apiKey)),
		indexName: indexName,
	}
}

// EnsureIndex creates the index and configures its search attributes.
// Settings updates are best effort; an already-existing index is fine.
func (p *Publisher) EnsureIndex() error {
	if _, err := p.client.CreateIndex(&meilisearch.IndexConfig{Uid: p.indexName, PrimaryKey: "id"}); err != nil {
		log.Printf("[SEARCH] create index %s: %v", p.indexName, err)
	}

	index := p.client.Index(p.indexName)
	settings := meilisearch.Settings{
		SearchableAttributes: []string{"title", "normalizedTitle", "code", "category"},
		FilterableAttributes: []string{"sourceId", "strategy", "confidence", "price"},
		SortableAttributes:   []string{"price", "confidence"},
	}
	if _, err := index.UpdateSettings(&settings); err != nil {
		return fmt.Errorf("failed to update index settings: %w", err)
	}
	return nil
}

// PublishReport indexes one document per result that carries a resolved
// source record. Fallback and unmatched results are not published: the
// storefront only lists items the engine actually identified.
func (p *Publisher) PublishReport(ctx context.Context, report domain.ResolutionReport) (int, error) {
	docs := make([]map[string]interface{}, 0, len(report.Matched))
	for i, result := range report.Matched {
		matched := result.Matched
		if matched == nil {
			continue
		}

		id := matched.NormalizedCode
		if id == "" {
			id = fmt.Sprintf("title_%d_%s", i, result.Target.NormalizedTitle)
		}

		doc := map[string]interface{}{
			"id":              sanitizeDocumentID(id),
			"title":           matched.RawTitle,
			"normalizedTitle": matched.NormalizedTitle,
			"code":            matched.NormalizedCode,
			"sourceId":        matched.SourceID,
			"strategy":        string(result.Strategy),
			"confidence":      result.Confidence,
		}
		switch {
		case result.Price != nil && result.Price.Resolved:
			doc["price"] = result.Price.Price
		case matched.HasPrice:
			doc["price"] = matched.Price
		}
		if result.Image != nil {
			doc["thumbnail"] = result.Image.Path
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return 0, nil
	}

	index := p.client.Index(p.indexName)
	pk := "id"
	if _, err := index.AddDocuments(docs, &meilisearch.DocumentOptions{PrimaryKey: &pk}); err != nil {
		return 0, fmt.Errorf("failed to index documents: %w", err)
	}
	log.Printf("[SEARCH] published %d documents to index %s", len(docs), p.indexName)
	return len(docs), nil
}

// sanitizeDocumentID keeps only characters Meilisearch accepts in primary keys
func sanitizeDocumentID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
