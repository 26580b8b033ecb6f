package domain

// MatchStrategy identifies which tier of the matching cascade produced a result.
type MatchStrategy string

const (
	StrategyExactCode        MatchStrategy = "exact_code"
	StrategyFuzzyText        MatchStrategy = "fuzzy_text"
	StrategyCategoryFallback MatchStrategy = "category_fallback"
	StrategyNone             MatchStrategy = "none"
)

// PriceMethod identifies which price-rescue index produced a resolved price.
type PriceMethod string

const (
	PriceMethodExactKey           PriceMethod = "exact_key"
	PriceMethodNormalizedTitleKey PriceMethod = "normalized_title_key"
	PriceMethodNone               PriceMethod = "none"
)

// CategoryTemplate carries same-kind defaults for an item that could not be
// matched to a specific source record. It never identifies the same physical
// part and must never be used as a price source.
type CategoryTemplate struct {
	Category string `json:"category"`
	Material string `json:"material"`
	Benefit  string `json:"benefit"`
}

// MatchResult is the outcome of resolving one target item against the source
// pools. Matched is non-nil only for the exact-code and fuzzy-text strategies;
// Template is non-nil only for the category fallback.
type MatchResult struct {
	Target     ItemRecord        `json:"target"`
	Matched    *ItemRecord       `json:"matched,omitempty"`
	Strategy   MatchStrategy     `json:"strategy"`
	Confidence float64           `json:"confidence"` // 0-1
	Template   *CategoryTemplate `json:"template,omitempty"`
	Image      *ImageCandidate   `json:"image,omitempty"`
	Price      *PriceResolution  `json:"price,omitempty"`
}

// PriceResolution is the outcome of the price rescue cascade for one item.
// SourceTier is the position of the winning source in the configured order,
// 0 = highest trust; -1 when nothing resolved.
type PriceResolution struct {
	Price      float64     `json:"price,omitempty"`
	Resolved   bool        `json:"resolved"`
	SourceTier int         `json:"sourceTier"`
	Method     PriceMethod `json:"method"`
}

// ResolutionReport is the batch-level summary of one engine run. Results holds
// every outcome in input order so callers can correlate positions; Matched and
// Unmatched split the batch by whether a specific source record was found.
type ResolutionReport struct {
	TotalTargets          int            `json:"totalTargets"`
	Results               []MatchResult  `json:"results"`
	Matched               []MatchResult  `json:"matched"`
	Unmatched             []ItemRecord   `json:"unmatched"`
	ConfidenceHistogram   map[string]int `json:"confidenceHistogram"`
	PerSourceContribution map[string]int `json:"perSourceContribution"`
}
