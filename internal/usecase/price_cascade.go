package usecase

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/partlens/backend/internal/domain"
)

// PriceSource is one configured price feed: already-parsed rows plus the
// trust weight assigned to the feed. Sources are configured in descending
// trust order; position in the list is the source tier.
type PriceSource struct {
	Name        string
	TrustWeight float64
	Entries     []domain.PriceEntry
}

// priceHit is one resolved index entry
type priceHit struct {
	price float64
	tier  int
}

// PriceCascadeConfig holds configuration for the rescue cascade
type PriceCascadeConfig struct {
	// MinPlausiblePrice rejects parsed values below this floor as units
	// errors instead of accepting them as valid low prices
	MinPlausiblePrice float64

	EnableDebugLogging bool
}

// PriceRescueCascade resolves a price for items whose own price is missing or
// invalid by walking the configured sources in trust order. Each source feeds
// two indices: exact normalized code, then exact normalized title as the
// lower-priority key. An earlier source's entry for a key is never
// overwritten by a later one.
type PriceRescueCascade struct {
	minPlausible float64
	normalizer   *Normalizer
	debug        bool

	loaded  bool
	byCode  map[string]priceHit
	byTitle map[string]priceHit
	skipped int
}

// NewPriceRescueCascade creates an empty cascade; call Load before Resolve
func NewPriceRescueCascade(config PriceCascadeConfig, normalizer *Normalizer) *PriceRescueCascade {
	minPlausible := config.MinPlausiblePrice
	if minPlausible <= 0 {
		minPlausible = 100
	}
	if normalizer == nil {
		normalizer = NewNormalizer(NormalizerConfig{})
	}
	return &PriceRescueCascade{
		minPlausible: minPlausible,
		normalizer:   normalizer,
		debug:        config.EnableDebugLogging,
	}
}

// Load validates the source list and builds both indices. It fails fast on
// caller mistakes: an empty list, trust weights outside [0,1], or weights not
// in descending order. Malformed rows are data noise, not errors: they are
// skipped and counted.
func (c *PriceRescueCascade) Load(sources []PriceSource) error {
	if len(sources) == 0 {
		return domain.ErrNoPriceSources
	}
	for i, src := range sources {
		if src.TrustWeight < 0 || src.TrustWeight > 1 {
			return fmt.Errorf("%w: source %q has weight %v", domain.ErrTrustWeightRange, src.Name, src.TrustWeight)
		}
		if i > 0 && src.TrustWeight > sources[i-1].TrustWeight {
			return fmt.Errorf("%w: source %q (%v) outranks %q (%v)",
				domain.ErrTrustOrder, src.Name, src.TrustWeight, sources[i-1].Name, sources[i-1].TrustWeight)
		}
	}

	c.byCode = make(map[string]priceHit)
	c.byTitle = make(map[string]priceHit)
	c.skipped = 0

	for tier, src := range sources {
		for _, entry := range src.Entries {
			price, err := ParsePrice(entry.RawPrice, c.minPlausible)
			if err != nil {
				c.skipped++
				if c.debug {
					log.Printf("[PRICE] skip %q from %s: %v", entry.RawPrice, src.Name, err)
				}
				continue
			}
			hit := priceHit{price: price, tier: tier}
			if code := c.normalizer.NormalizeCode(entry.Code); code != "" {
				if _, exists := c.byCode[code]; !exists {
					c.byCode[code] = hit
				}
			}
			if title := c.normalizer.NormalizeTitle(entry.Title); title != "" {
				if _, exists := c.byTitle[title]; !exists {
					c.byTitle[title] = hit
				}
			}
		}
	}

	c.loaded = true
	if c.debug {
		log.Printf("[PRICE] loaded %d sources: %d code keys, %d title keys, %d rows skipped",
			len(sources), len(c.byCode), len(c.byTitle), c.skipped)
	}
	return nil
}

// Loaded reports whether Load has completed successfully
func (c *PriceRescueCascade) Loaded() bool { return c.loaded }

// SkippedRows returns the count of rows dropped during Load
func (c *PriceRescueCascade) SkippedRows() int { return c.skipped }

// Resolve walks the indices: exact normalized code first, then exact
// normalized title. The returned tier is the position of the winning source
// in the configured order (0 = highest trust).
func (c *PriceRescueCascade) Resolve(code, title string) domain.PriceResolution {
	if c.loaded {
		if key := c.normalizer.NormalizeCode(code); key != "" {
			if hit, ok := c.byCode[key]; ok {
				return domain.PriceResolution{
					Price:      hit.price,
					Resolved:   true,
					SourceTier: hit.tier,
					Method:     domain.PriceMethodExactKey,
				}
			}
		}
		if key := c.normalizer.NormalizeTitle(title); key != "" {
			if hit, ok := c.byTitle[key]; ok {
				return domain.PriceResolution{
					Price:      hit.price,
					Resolved:   true,
					SourceTier: hit.tier,
					Method:     domain.PriceMethodNormalizedTitleKey,
				}
			}
		}
	}
	return domain.PriceResolution{SourceTier: -1, Method: domain.PriceMethodNone}
}

// ParsePrice parses a raw price string under a single disambiguation rule for
// locale-ambiguous separators:
//
//   - both "." and "," present: the first-appearing separator is the
//     thousands separator, the second the decimal point
//   - a single separator type followed by three or more digits is a
//     thousands separator; fewer digits make it the decimal point
//
// Values below minPlausible are rejected as units errors rather than
// accepted as valid low prices.
func ParsePrice(raw string, minPlausible float64) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, domain.ErrMalformedPrice
	}

	// Keep only digits and separators; currency symbols and spaces drop out
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	numeric := b.String()
	if numeric == "" {
		return 0, domain.ErrMalformedPrice
	}

	dot := strings.IndexByte(numeric, '.')
	comma := strings.IndexByte(numeric, ',')

	switch {
	case dot >= 0 && comma >= 0:
		if dot < comma {
			numeric = strings.ReplaceAll(numeric, ".", "")
			numeric = strings.Replace(numeric, ",", ".", 1)
		} else {
			numeric = strings.ReplaceAll(numeric, ",", "")
		}
	case dot >= 0:
		numeric = resolveSingleSeparator(numeric, ".")
	case comma >= 0:
		numeric = resolveSingleSeparator(numeric, ",")
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedPrice, raw)
	}
	if value < minPlausible {
		return 0, fmt.Errorf("%w: %v below %v", domain.ErrImplausiblePrice, value, minPlausible)
	}
	return value, nil
}

// resolveSingleSeparator applies the single-separator rule: multiple
// occurrences or three-plus trailing digits mean thousands grouping,
// otherwise the separator is the decimal point.
func resolveSingleSeparator(numeric, sep string) string {
	if strings.Count(numeric, sep) > 1 {
		return strings.ReplaceAll(numeric, sep, "")
	}
	idx := strings.Index(numeric, sep)
	if len(numeric)-idx-1 >= 3 {
		return strings.ReplaceAll(numeric, sep, "")
	}
	if sep == "," {
		return strings.Replace(numeric, ",", ".", 1)
	}
	return numeric
}
