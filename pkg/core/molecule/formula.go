package molecule

import (
	"slices"
	"strconv"
	"strings"
)

// Composition counts atoms per element.
func Composition(atoms []Atom) map[string]int {
	counts := make(map[string]int)
	for _, a := range atoms {
		counts[NormalizeElement(a.Element)]++
	}
	return counts
}

// Formula renders the composition in Hill order: C, then H, then the rest
// alphabetically. Without carbon every element is alphabetical.
func Formula(atoms []Atom) string {
	counts := Composition(atoms)
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	if _, ok := counts["C"]; ok {
		rest := slices.DeleteFunc(symbols, func(s string) bool { return s == "C" || s == "H" })
		symbols = append([]string{"C"}, rest...)
		if _, ok := counts["H"]; ok {
			symbols = slices.Insert(symbols, 1, "H")
		}
	}

	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s)
		if n := counts[s]; n > 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}
