package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/partlens/backend/config"
	httpDelivery "github.com/partlens/backend/internal/delivery/http"
	"github.com/partlens/backend/internal/domain"
	"github.com/partlens/backend/internal/infrastructure/imaging"
	"github.com/partlens/backend/internal/infrastructure/meili"
	"github.com/partlens/backend/internal/infrastructure/postgres"
	"github.com/partlens/backend/internal/infrastructure/snapshot"
	"github.com/partlens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PartLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Core resolution components
	normalizer := usecase.NewNormalizer(usecase.NormalizerConfig{})
	matcher := usecase.NewIdentityMatcher(usecase.MatcherConfig{
		FuzzyThreshold:     cfg.Matching.FuzzyThreshold,
		MinKeywordOverlap:  cfg.Matching.MinKeywordOverlap,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, normalizer)
	dedup := usecase.NewImageDeduplicator(usecase.DedupConfig{
		HammingThreshold:   cfg.Dedup.HammingThreshold,
		MinWidth:           cfg.Dedup.MinWidth,
		MinByteSize:        cfg.Dedup.MinByteSize,
		RelaxedMinWidth:    cfg.Dedup.RelaxedMinWidth,
		RelaxedMinByteSize: cfg.Dedup.RelaxedMinByteSize,
		MinValidated:       cfg.Dedup.MinValidated,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	engine := usecase.NewResolutionEngine(matcher, dedup, usecase.EngineConfig{
		ImageThreshold:     cfg.Dedup.HammingThreshold,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})
	priceCfg := usecase.PriceCascadeConfig{
		MinPlausiblePrice:  cfg.Price.MinPlausible,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}

	log.Printf("Matching: fuzzy threshold=%.2f, keyword overlap=%d, debug=%v",
		cfg.Matching.FuzzyThreshold, cfg.Matching.MinKeywordOverlap, cfg.Matching.EnableDebugLogging)
	log.Printf("Dedup: hamming<=%d, floor %dpx/%dB (relaxed %dpx/%dB)",
		cfg.Dedup.HammingThreshold, cfg.Dedup.MinWidth, cfg.Dedup.MinByteSize,
		cfg.Dedup.RelaxedMinWidth, cfg.Dedup.RelaxedMinByteSize)

	// Optional catalog ingestion from Postgres: source snapshots, image
	// assets, and the startup price cascade
	var (
		snapshots domain.CatalogSnapshots
		images    *usecase.ImageIndex
		cascade   *usecase.PriceRescueCascade
	)
	if cfg.Ingest.Enabled {
		store := snapshot.NewStore(cfg.Ingest.SnapshotTTL)
		db, err := postgres.Open(cfg.Ingest.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to ingestion database: %v", err)
		}
		images, cascade, err = ingestSources(cfg, normalizer, priceCfg, db, store)
		db.Close()
		if err != nil {
			log.Fatalf("Failed to ingest catalog sources: %v", err)
		}
		snapshots = store
	} else {
		log.Printf("Catalog ingestion disabled; resolve requests must carry inline sources")
	}

	// Optional search publishing to Meilisearch
	var publisher domain.ReportPublisher
	if cfg.Search.Enabled {
		p := meili.NewPublisher(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index)
		if err := p.EnsureIndex(); err != nil {
			log.Printf("WARNING: search index setup failed: %v", err)
		}
		publisher = p
		log.Printf("Search publishing: %s (index %s)", cfg.Search.URL, cfg.Search.Index)
	}

	handler := httpDelivery.NewHandler(normalizer, matcher, dedup, engine, priceCfg, images, cascade, snapshots, publisher)

	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ingestSources loads every configured source into the snapshot store,
// fingerprints the registered image assets, and builds the startup price
// cascade from the configured feeds. Records are normalized on the way in.
func ingestSources(cfg *config.Config, normalizer *usecase.Normalizer, priceCfg usecase.PriceCascadeConfig, src domain.RecordSource, store *snapshot.Store) (*usecase.ImageIndex, *usecase.PriceRescueCascade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sourceIDs := make([]string, 0, len(cfg.Ingest.Sources))
	for _, source := range cfg.Ingest.Sources {
		records, err := src.LoadSource(ctx, source.ID)
		if err != nil {
			return nil, nil, err
		}
		for i := range records {
			records[i].TrustWeight = source.TrustWeight
			records[i] = normalizer.Prepare(records[i])
		}
		store.Put(source.ID, source.TrustWeight, records)
		sourceIDs = append(sourceIDs, source.ID)
		log.Printf("Ingested source %s: %d records (trust %.2f)", source.ID, len(records), source.TrustWeight)
	}

	candidates, err := src.LoadImageCandidates(ctx, sourceIDs)
	if err != nil {
		return nil, nil, err
	}
	scanned, unreadable := imaging.ScanCandidates(candidates)
	images, unfingerprinted := usecase.NewImageIndex(scanned)
	log.Printf("Ingested %d image assets (%d unreadable, %d without fingerprints)",
		images.Len(), unreadable, unfingerprinted)

	var cascade *usecase.PriceRescueCascade
	if len(cfg.Price.Sources) > 0 {
		feeds := make([]usecase.PriceSource, 0, len(cfg.Price.Sources))
		for _, feed := range cfg.Price.Sources {
			entries, err := src.LoadPriceEntries(ctx, feed.Name)
			if err != nil {
				return nil, nil, err
			}
			feeds = append(feeds, usecase.PriceSource{
				Name:        feed.Name,
				TrustWeight: feed.TrustWeight,
				Entries:     entries,
			})
		}
		cascade = usecase.NewPriceRescueCascade(priceCfg, normalizer)
		if err := cascade.Load(feeds); err != nil {
			return nil, nil, err
		}
		log.Printf("Price cascade: %d sources, %d rows skipped", len(feeds), cascade.SkippedRows())
	}

	return images, cascade, nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
