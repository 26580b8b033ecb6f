// Package imaging computes perceptual fingerprints for image assets. The
// fingerprint is a 64-bit difference hash: the image is box-averaged down to
// a 9x8 grayscale grid and each bit encodes whether a cell is brighter than
// its left neighbor. The signature survives re-encoding, minor cropping and
// compression artifacts while separating genuinely different photographs.
package imaging

import (
	"image"
	"log"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/partlens/backend/internal/domain"
)

const (
	hashCols = 9
	hashRows = 8
)

// FingerprintImage computes the difference hash of a decoded image
func FingerprintImage(img image.Image) domain.Fingerprint {
	cells := downsample(img, hashCols, hashRows)

	var hash uint64
	bit := 0
	for y := 0; y < hashRows; y++ {
		for x := 0; x < hashCols-1; x++ {
			if cells[y][x+1] > cells[y][x] {
				hash |= 1 << uint(bit)
			}
			bit++
		}
	}
	return domain.Fingerprint(hash)
}

// downsample box-averages the image luma into a cols x rows grid
func downsample(img image.Image, cols, rows int) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	cells := make([][]float64, rows)
	for y := range cells {
		cells[y] = make([]float64, cols)
	}
	if width == 0 || height == 0 {
		return cells
	}

	for cy := 0; cy < rows; cy++ {
		y0 := bounds.Min.Y + cy*height/rows
		y1 := bounds.Min.Y + (cy+1)*height/rows
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for cx := 0; cx < cols; cx++ {
			x0 := bounds.Min.X + cx*width/cols
			x1 := bounds.Min.X + (cx+1)*width/cols
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum float64
			var count int
			for y := y0; y < y1 && y < bounds.Max.Y; y++ {
				for x := x0; x < x1 && x < bounds.Max.X; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					// Standard luma weights over 16-bit channels
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
					count++
				}
			}
			if count > 0 {
				cells[cy][cx] = sum / float64(count)
			}
		}
	}
	return cells
}

// FingerprintFile decodes the image at path and returns its fingerprint. A
// corrupt or unreadable file yields ok=false; decode failures never
// propagate beyond this boundary.
func FingerprintFile(path string) (fp domain.Fingerprint, width, height int, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, 0, 0, false
	}
	bounds := img.Bounds()
	return FingerprintImage(img), bounds.Dx(), bounds.Dy(), true
}

// ScanCandidates fills in fingerprints and dimensions for candidates that
// arrive with only a path, reading each file once. Candidates whose file
// cannot be read or decoded are dropped; the skip count is returned alongside
// the usable candidates.
func ScanCandidates(candidates []domain.ImageCandidate) ([]domain.ImageCandidate, int) {
	out := make([]domain.ImageCandidate, 0, len(candidates))
	skipped := 0

	for _, cand := range candidates {
		if cand.HasFingerprint {
			out = append(out, cand)
			continue
		}

		fp, width, height, ok := FingerprintFile(cand.Path)
		if !ok {
			skipped++
			log.Printf("[IMAGE] skipping unreadable asset %s", cand.Path)
			continue
		}
		cand.Fingerprint = fp
		cand.HasFingerprint = true
		cand.Width = width
		cand.Height = height
		if cand.ByteSize == 0 {
			if info, err := os.Stat(cand.Path); err == nil {
				cand.ByteSize = int(info.Size())
			}
		}
		out = append(out, cand)
	}
	return out, skipped
}
