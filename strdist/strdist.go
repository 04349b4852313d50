// Package strdist computes normalized string distances between a name and a
// pool of candidate names. it backs the duplicate name scans, so every
// comparator reports on a common 0.0 (identical) to ~1.0 (unrelated) scale.
package strdist

import (
	"fmt"
	"strings"
)

// Algorithm selects one of the interchangeable comparators.
type Algorithm int

const (
	// AlgoFastComp is a bounded edit distance with a cutoff of 2. cheap
	// enough for a first pass over the whole name pool.
	AlgoFastComp Algorithm = iota + 1
	// AlgoLevenshtein is the classic edit distance, bounded by
	// LevenshteinMaxDist. slow but precise.
	AlgoLevenshtein
	// AlgoSorensen is the Sørensen-Dice dissimilarity of the two names'
	// character sets. order insensitive overlap counting.
	AlgoSorensen
	// AlgoJaccard is the Jaccard dissimilarity of the two names' character
	// sets.
	AlgoJaccard
)

// LevenshteinMaxDist bounds the slow comparator. candidates further away than
// this are not yielded at all.
const LevenshteinMaxDist = 10

// Variant pairs an algorithm with its case handling. the two are explicit
// here instead of being inferred from a name suffix at every use site.
type Variant struct {
	Algorithm Algorithm
	Lowercase bool
}

//nolint:gochecknoglobals
var variants = map[string]Variant{
	"D1":  {AlgoFastComp, false},
	"D1L": {AlgoFastComp, true},
	"D2":  {AlgoLevenshtein, false},
	"D2L": {AlgoLevenshtein, true},
	"D3":  {AlgoSorensen, false},
	"D3L": {AlgoSorensen, true},
	"D4":  {AlgoJaccard, false},
	"D4L": {AlgoJaccard, true},
}

// ParseVariant maps a score slot name like "D1" or "D2L" to its variant.
func ParseVariant(name string) (Variant, error) {
	v, ok := variants[strings.ToUpper(name)]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

func (v Variant) String() string {
	for name, other := range variants {
		if other == v {
			return name
		}
	}
	return fmt.Sprintf("Variant(%d, %t)", v.Algorithm, v.Lowercase)
}

// Scan calls yield with the normalized distance between value and every
// candidate the variant's comparator considers comparable, in pool order,
// stopping early if yield returns false. when the variant folds case the
// distance is computed on the folded forms but candidates are yielded with
// their stored casing. calling Scan again restarts the sequence.
func Scan(v Variant, value string, pool []string, yield func(dist float64, candidate string) bool) {
	folded := value
	if v.Lowercase {
		folded = strings.ToLower(folded)
	}
	for _, candidate := range pool {
		other := candidate
		if v.Lowercase {
			other = strings.ToLower(other)
		}
		dist, ok := compare(v.Algorithm, folded, other)
		if !ok {
			continue
		}
		if !yield(dist, candidate) {
			return
		}
	}
}

func compare(algo Algorithm, a, b string) (float64, bool) {
	switch algo {
	case AlgoFastComp:
		d := FastComp(a, b)
		if d < 0 {
			return 0, false
		}
		return normalize(d, a, b), true
	case AlgoLevenshtein:
		d := Levenshtein(a, b, LevenshteinMaxDist)
		if d < 0 {
			return 0, false
		}
		return normalize(d, a, b), true
	case AlgoSorensen:
		return Sorensen(a, b), true
	case AlgoJaccard:
		return Jaccard(a, b), true
	}
	return 0, false
}

// normalize divides a raw distance by the longer of the two names' lengths.
func normalize(dist int, a, b string) float64 {
	length := len([]rune(a))
	if lb := len([]rune(b)); lb > length {
		length = lb
	}
	if length == 0 {
		return 0
	}
	return float64(dist) / float64(length)
}

// FastComp returns the edit distance between a and b if it is 2 or less, and
// -1 otherwise. the small bound keeps each comparison linear.
func FastComp(a, b string) int {
	return boundedLevenshtein([]rune(a), []rune(b), 2)
}

// Levenshtein returns the edit distance between a and b if it is max or less,
// and -1 otherwise.
func Levenshtein(a, b string, max int) int {
	return boundedLevenshtein([]rune(a), []rune(b), max)
}

func boundedLevenshtein(a, b []rune, max int) int {
	if diff := len(a) - len(b); diff > max || -diff > max {
		return -1
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = prev[j] + 1
			if del := curr[j-1] + 1; del < curr[j] {
				curr[j] = del
			}
			if sub := prev[j-1] + cost; sub < curr[j] {
				curr[j] = sub
			}
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		// every cell can only grow from here. bail out early
		if rowMin > max {
			return -1
		}
		prev, curr = curr, prev
	}
	if d := prev[len(b)]; d <= max {
		return d
	}
	return -1
}

// Sorensen returns the Sørensen-Dice dissimilarity of the two strings'
// character sets, already normalized between 0 and 1.
func Sorensen(a, b string) float64 {
	as, bs := runeSet(a), runeSet(b)
	total := len(as) + len(bs)
	if total == 0 {
		return 0
	}
	return 1 - float64(2*intersectLen(as, bs))/float64(total)
}

// Jaccard returns the Jaccard dissimilarity of the two strings' character
// sets, already normalized between 0 and 1.
func Jaccard(a, b string) float64 {
	as, bs := runeSet(a), runeSet(b)
	inter := intersectLen(as, bs)
	union := len(as) + len(bs) - inter
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

func runeSet(in string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(in))
	for _, r := range in {
		set[r] = struct{}{}
	}
	return set
}

func intersectLen(a, b map[rune]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	var count int
	for r := range a {
		if _, ok := b[r]; ok {
			count++
		}
	}
	return count
}
