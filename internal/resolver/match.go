package resolver

import (
	"path"
	"path/filepath"
	"strings"
)

// Rank orders candidates; lower is better.
type Rank int

const (
	RankExact       Rank = iota // same file name, ignoring case
	RankSimilarName             // same extension and a similar stem
	RankSimilarSize             // size close to the estimate
)

func (r Rank) String() string {
	switch r {
	case RankExact:
		return "exact"
	case RankSimilarName:
		return "similar-name"
	case RankSimilarSize:
		return "similar-size"
	default:
		return "unknown"
	}
}

// MarshalText encodes the rank by name.
func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

const (
	// maxStemLength is the longest stem the mismatch count is computed for.
	maxStemLength = 300
	// nameTolerance is the share of the longer stem that may differ.
	nameTolerance = 0.2
	// sizeTolerance is the share of the estimate a file size may deviate by.
	sizeTolerance = 0.1
)

// EstimateSize returns the expected byte size of an audio file, or 0 when unknown.
func EstimateSize(bitrateKbps int64, durationSeconds float64) int64 {
	if bitrateKbps <= 0 || durationSeconds <= 0 {
		return 0
	}
	return int64(float64(bitrateKbps) * 1000 / 8 * durationSeconds)
}

// BaseName returns the last element of a recorded path, accepting either separator.
func BaseName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

// Match ranks a file named name of size bytes against target. estimate is the expected size
// from [EstimateSize], or 0. It reports false when the file is not a candidate.
func Match(target, name string, size, estimate int64) (Rank, bool) {
	if strings.EqualFold(target, name) {
		return RankExact, true
	}

	tExt, nExt := filepath.Ext(target), filepath.Ext(name)
	if strings.EqualFold(tExt, nExt) && SimilarStems(strings.TrimSuffix(target, tExt), strings.TrimSuffix(name, nExt)) {
		return RankSimilarName, true
	}

	if estimate > 0 {
		delta := size - estimate
		if delta < 0 {
			delta = -delta
		}
		if float64(delta) <= float64(estimate)*sizeTolerance {
			return RankSimilarSize, true
		}
	}
	return 0, false
}

// SimilarStems reports whether two file stems are alike, ignoring case.
//
// Stems are alike when one contains the other, or when the difference count is at most 20%
// of the longer stem. The difference count is the length delta plus the positions that differ
// over the shared prefix length; it is not an edit distance. Stems over 300 characters are
// only compared by containment.
func SimilarStems(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest > maxStemLength {
		return false
	}

	diff := len(ra) - len(rb)
	if diff < 0 {
		diff = -diff
	}
	for i := 0; i < min(len(ra), len(rb)); i++ {
		if ra[i] != rb[i] {
			diff++
		}
	}
	return float64(diff) <= float64(longest)*nameTolerance
}
