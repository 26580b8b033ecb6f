package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/partlens/backend/internal/domain"
)

// Compiled regex patterns for title normalization
var (
	// Anything that is not a letter, digit or space becomes a space
	titlePunctuationRegex = regexp.MustCompile(`[^\p{L}\p{N} ]+`)

	// Whitespace runs collapse to a single space
	titleSpaceRegex = regexp.MustCompile(`\s+`)
)

// diacriticFolder strips combining marks after NFD decomposition, so that
// "piñón" and "pinon" normalize to the same key.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// defaultTitleSuffixes are trailing low-information qualifiers stripped from
// normalized titles: brand tags, generic marketing qualifiers, and unit
// markers that vary between sources describing the same part.
var defaultTitleSuffixes = []string{
	"nal",
	"imp",
	"importado",
	"original",
	"generico",
	"x unidad",
	"unidad",
	"c u",
	"ref",
}

// titleStopwords are tokens excluded from keyword extraction. The catalog
// feeds mix Spanish and English, so both are covered.
var titleStopwords = map[string]bool{
	"del": true, "los": true, "las": true, "para": true, "por": true,
	"con": true, "sin": true, "una": true, "uno": true, "tipo": true,
	"the": true, "and": true, "for": true, "with": true, "set": true,
}

// NormalizerConfig holds configuration for the key normalizer
type NormalizerConfig struct {
	// TitleSuffixes overrides the default trailing-suffix list when non-nil
	TitleSuffixes []string
}

// Normalizer canonicalizes raw codes and free-text titles into matchable
// keys. Both operations are pure and idempotent; every component compares
// records through the same normalizer so keys built anywhere in the system
// are directly comparable.
type Normalizer struct {
	suffixes []string
}

// NewNormalizer creates a normalizer with the given configuration
func NewNormalizer(config NormalizerConfig) *Normalizer {
	suffixes := config.TitleSuffixes
	if suffixes == nil {
		suffixes = defaultTitleSuffixes
	}
	return &Normalizer{suffixes: suffixes}
}

// NormalizeCode uppercases and strips all non-alphanumeric characters.
// Total: never fails, returns "" for empty input.
func (n *Normalizer) NormalizeCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTitle lowercases, strips diacritics, collapses punctuation and
// whitespace, and removes trailing low-information suffixes. When cleanup
// would empty a non-empty title (punctuation-only input), the lowercased raw
// value is kept so a non-empty raw title never normalizes to "".
func (n *Normalizer) NormalizeTitle(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	folded, _, err := transform.String(diacriticFolder, lowered)
	if err != nil {
		folded = lowered
	}

	cleaned := titlePunctuationRegex.ReplaceAllString(folded, " ")
	cleaned = titleSpaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return lowered
	}

	return n.stripSuffixes(cleaned)
}

// stripSuffixes removes trailing suffixes from the list, repeating until no
// suffix applies. A strip that would empty the title is not applied.
func (n *Normalizer) stripSuffixes(title string) string {
	for {
		stripped := title
		for _, suffix := range n.suffixes {
			if title == suffix {
				continue
			}
			trimmed := strings.TrimSuffix(title, " "+suffix)
			if trimmed != title {
				stripped = trimmed
				break
			}
		}
		if stripped == title {
			return title
		}
		title = stripped
	}
}

// Keywords extracts matchable tokens from a normalized title: tokens of
// length >= 3 excluding stopwords, in order of first appearance without
// duplicates. Used by the fuzzy-match prefilter and the catalog keyword index.
func (n *Normalizer) Keywords(normalizedTitle string) []string {
	fields := strings.Fields(normalizedTitle)
	var keywords []string
	seen := make(map[string]bool, len(fields))
	for _, token := range fields {
		if len(token) < 3 {
			continue
		}
		if titleStopwords[token] {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

// Prepare returns a copy of the record with normalized key fields filled in
// from the raw fields. Ingestion adapters call this once per row.
func (n *Normalizer) Prepare(record domain.ItemRecord) domain.ItemRecord {
	record.NormalizedCode = n.NormalizeCode(record.RawCode)
	record.NormalizedTitle = n.NormalizeTitle(record.RawTitle)
	return record
}
