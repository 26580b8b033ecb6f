package domain

import (
	"context"
	"time"
)

// SourceSnapshot is a materialized per-source record set held between
// resolution runs. Records are already normalized when stored.
type SourceSnapshot struct {
	SourceID    string
	TrustWeight float64
	Records     []ItemRecord
	StoredAt    time.Time
}

// CatalogSnapshots defines the interface for the snapshot store that keeps
// ingested source catalogs available between resolution requests.
type CatalogSnapshots interface {
	Put(sourceID string, trustWeight float64, records []ItemRecord)
	Get(sourceID string) (SourceSnapshot, bool)
	All() []SourceSnapshot
}

// RecordSource defines the interface for the ingestion collaborator that
// supplies already-parsed records per source. The resolution core never reads
// files or databases itself.
type RecordSource interface {
	LoadSource(ctx context.Context, sourceID string) ([]ItemRecord, error)
	LoadImageCandidates(ctx context.Context, sourceIDs []string) ([]ImageCandidate, error)
	LoadPriceEntries(ctx context.Context, sourceID string) ([]PriceEntry, error)
}

// ReportPublisher defines the interface for the publishing collaborator that
// pushes resolved items to a storefront search index. Returns the number of
// documents published.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report ResolutionReport) (int, error)
}
