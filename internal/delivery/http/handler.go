package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partlens/backend/internal/domain"
	"github.com/partlens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	normalizer *usecase.Normalizer
	matcher    *usecase.IdentityMatcher
	dedup      *usecase.ImageDeduplicator
	engine     *usecase.ResolutionEngine
	priceCfg   usecase.PriceCascadeConfig
	images     *usecase.ImageIndex
	cascade    *usecase.PriceRescueCascade
	snapshots  domain.CatalogSnapshots
	publisher  domain.ReportPublisher
}

// NewHandler creates a new HTTP handler. images and cascade are the
// ingestion-backed defaults used when a request carries no inline image
// candidates or price sources; they, snapshots and publisher are all
// optional — when nil the related request features return an explanatory
// error instead of panicking.
func NewHandler(
	normalizer *usecase.Normalizer,
	matcher *usecase.IdentityMatcher,
	dedup *usecase.ImageDeduplicator,
	engine *usecase.ResolutionEngine,
	priceCfg usecase.PriceCascadeConfig,
	images *usecase.ImageIndex,
	cascade *usecase.PriceRescueCascade,
	snapshots domain.CatalogSnapshots,
	publisher domain.ReportPublisher,
) *Handler {
	return &Handler{
		normalizer: normalizer,
		matcher:    matcher,
		dedup:      dedup,
		engine:     engine,
		priceCfg:   priceCfg,
		images:     images,
		cascade:    cascade,
		snapshots:  snapshots,
		publisher:  publisher,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "partlens-backend",
		"version": "1.0.0",
	})
}

// itemPayload is one raw catalog row in a request body
type itemPayload struct {
	Code     string  `json:"code"`
	Title    string  `json:"title" binding:"required"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"imageRef"`
	SourceID string  `json:"sourceId"`
}

// sourcePayload is one inline source pool in a request body
type sourcePayload struct {
	ID          string        `json:"id" binding:"required"`
	TrustWeight float64       `json:"trustWeight"`
	PreferTrust bool          `json:"preferHigherTrust"`
	Records     []itemPayload `json:"records"`
}

// priceSourcePayload is one inline price feed in a request body
type priceSourcePayload struct {
	Name        string              `json:"name" binding:"required"`
	TrustWeight float64             `json:"trustWeight"`
	Entries     []domain.PriceEntry `json:"entries"`
}

// resolveRequest is the body of POST /resolution/resolve
type resolveRequest struct {
	Targets      []itemPayload           `json:"targets" binding:"required"`
	Sources      []sourcePayload         `json:"sources"`
	PriceSources []priceSourcePayload    `json:"priceSources"`
	Images       []domain.ImageCandidate `json:"images"`
	Publish      bool                    `json:"publish"`
}

// Resolve runs the resolution engine over one request batch. Source pools
// come inline with the request or, when omitted, from the ingested catalog
// snapshots.
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Targets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one target is required"})
		return
	}

	pools, err := h.buildPools(req.Sources)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Inline price sources override the cascade ingested at startup
	cascade := h.cascade
	if req.PriceSources != nil {
		cascade = usecase.NewPriceRescueCascade(h.priceCfg, h.normalizer)
		sources := make([]usecase.PriceSource, 0, len(req.PriceSources))
		for _, src := range req.PriceSources {
			sources = append(sources, usecase.PriceSource{
				Name:        src.Name,
				TrustWeight: src.TrustWeight,
				Entries:     src.Entries,
			})
		}
		if err := cascade.Load(sources); err != nil {
			status := http.StatusBadRequest
			if !errors.Is(err, domain.ErrNoPriceSources) && !errors.Is(err, domain.ErrTrustOrder) && !errors.Is(err, domain.ErrTrustWeightRange) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
	}

	// Inline image candidates override the assets scanned at ingestion
	index := h.images
	imagesSkipped := 0
	if len(req.Images) > 0 {
		index, imagesSkipped = usecase.NewImageIndex(req.Images)
	}

	targets := make([]domain.ItemRecord, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, h.toRecord(t, t.SourceID, 0))
	}

	report := h.engine.Run(targets, pools, index, cascade)

	published := 0
	if req.Publish {
		if h.publisher == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "search publishing is not configured"})
			return
		}
		published, err = h.publisher.PublishReport(c.Request.Context(), report)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to publish report: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"requestId":     uuid.NewString(),
		"report":        report,
		"imagesSkipped": imagesSkipped,
		"published":     published,
	})
}

// buildPools converts inline source payloads into catalogs, or falls back to
// the snapshot store when the request carries no sources.
func (h *Handler) buildPools(sources []sourcePayload) ([]*usecase.SourceCatalog, error) {
	if len(sources) == 0 {
		if h.snapshots == nil {
			return nil, errors.New("no inline sources and no catalog snapshots configured")
		}
		stored := h.snapshots.All()
		if len(stored) == 0 {
			return nil, errors.New("no inline sources and no ingested snapshots available")
		}
		pools := make([]*usecase.SourceCatalog, 0, len(stored))
		for _, snap := range stored {
			catalog := usecase.NewSourceCatalog(snap.SourceID, snap.TrustWeight, usecase.KeepFirst, h.normalizer)
			for _, record := range snap.Records {
				catalog.Add(record)
			}
			pools = append(pools, catalog)
		}
		return pools, nil
	}

	pools := make([]*usecase.SourceCatalog, 0, len(sources))
	for _, src := range sources {
		policy := usecase.KeepFirst
		if src.PreferTrust {
			policy = usecase.PreferHigherTrust
		}
		catalog := usecase.NewSourceCatalog(src.ID, src.TrustWeight, policy, h.normalizer)
		for _, record := range src.Records {
			catalog.Add(h.toRecord(record, src.ID, src.TrustWeight))
		}
		pools = append(pools, catalog)
	}
	return pools, nil
}

// toRecord normalizes one payload row into a domain record
func (h *Handler) toRecord(p itemPayload, sourceID string, trustWeight float64) domain.ItemRecord {
	record := domain.ItemRecord{
		RawCode:     p.Code,
		RawTitle:    p.Title,
		ImageRef:    p.ImageRef,
		SourceID:    sourceID,
		TrustWeight: trustWeight,
	}
	if p.Price > 0 {
		record.Price = p.Price
		record.HasPrice = true
		record.PriceConfidence = 1
	}
	return h.normalizer.Prepare(record)
}

// normalizeRequest is the body of POST /resolution/normalize
type normalizeRequest struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Normalize echoes how the engine would canonicalize a code and title.
// Operational tool for inspecting why two feed rows did or did not match.
func (h *Handler) Normalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Code == "" && req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code or title is required"})
		return
	}

	normalizedTitle := h.normalizer.NormalizeTitle(req.Title)
	c.JSON(http.StatusOK, gin.H{
		"normalizedCode":  h.normalizer.NormalizeCode(req.Code),
		"normalizedTitle": normalizedTitle,
		"keywords":        h.normalizer.Keywords(normalizedTitle),
	})
}

// Sources lists the ingested catalog snapshots
func (h *Handler) Sources(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog ingestion is not configured"})
		return
	}

	type sourceSummary struct {
		SourceID    string  `json:"sourceId"`
		TrustWeight float64 `json:"trustWeight"`
		Records     int     `json:"records"`
		StoredAt    string  `json:"storedAt"`
	}

	snapshots := h.snapshots.All()
	out := make([]sourceSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, sourceSummary{
			SourceID:    snap.SourceID,
			TrustWeight: snap.TrustWeight,
			Records:     len(snap.Records),
			StoredAt:    snap.StoredAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}
