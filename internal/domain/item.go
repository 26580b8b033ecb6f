package domain

import "math/bits"

// ItemRecord represents one catalog entry as reported by a single source.
// Records are created once at ingestion and never mutated; matching produces
// new result objects instead.
type ItemRecord struct {
	RawCode         string  `json:"rawCode,omitempty"`
	RawTitle        string  `json:"rawTitle"`
	NormalizedCode  string  `json:"normalizedCode,omitempty"`
	NormalizedTitle string  `json:"normalizedTitle"`
	Price           float64 `json:"price,omitempty"`
	HasPrice        bool    `json:"hasPrice"`
	PriceConfidence float64 `json:"priceConfidence"` // 0-1
	ImageRef        string  `json:"imageRef,omitempty"`
	SourceID        string  `json:"sourceId"`
	TrustWeight     float64 `json:"trustWeight"` // 0-1, configured per source
}

// Fingerprint is a 64-bit perceptual hash of an image. Equal-length bit
// vectors are compared via Hamming distance, which is symmetric and satisfies
// the triangle inequality.
type Fingerprint uint64

// Distance returns the Hamming distance to another fingerprint.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// ImageCandidate is one image asset associated with a source item.
type ImageCandidate struct {
	Path           string      `json:"path"`
	Fingerprint    Fingerprint `json:"fingerprint"`
	HasFingerprint bool        `json:"hasFingerprint"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	ByteSize       int         `json:"byteSize"`
	SourceID       string      `json:"sourceId"`
}

// Resolution returns the pixel count used for quality ordering.
func (c ImageCandidate) Resolution() int {
	return c.Width * c.Height
}

// PriceEntry is one raw row from a configured price source, before parsing.
type PriceEntry struct {
	Code     string `json:"code,omitempty"`
	Title    string `json:"title"`
	RawPrice string `json:"rawPrice"`
}
