package match

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// PartialRatio scores how well the shorter of a and b fits somewhere inside
// the longer one, from 0 to 100. Every window of the longer string with the
// shorter string's length is compared by edit distance and the best is kept.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	short := string(ra)
	best := len(ra)
	for i := 0; i+len(ra) <= len(rb); i++ {
		d := levenshtein.ComputeDistance(short, string(rb[i:i+len(ra)]))
		if d < best {
			best = d
		}
		if best == 0 {
			break
		}
	}
	return int(math.Round(100 * (1 - float64(best)/float64(len(ra)))))
}
