package molecule

import (
	"bufio"
	"strconv"
	"strings"
	"unicode"

	"github.com/crowelm/crowelm/pkg/common/code"
)

// Fixed PDB columns, 1-based inclusive as in the format description.
const (
	colRecord  = 1
	colRecordE = 6
	colSerial  = 7
	colSerialE = 11
	colName    = 13
	colNameE   = 16
	colResName = 18
	colResE    = 20
	colChain   = 22
	colResSeq  = 23
	colResSeqE = 26
	colX       = 31
	colXE      = 38
	colY       = 39
	colYE      = 46
	colZ       = 47
	colZE      = 54
	colElement = 77
	colElemE   = 78

	maxBondOrder = 3
)

// column returns the trimmed text between 1-based inclusive columns, clamped
// to the line length.
func column(line string, start, end int) string {
	if start > len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start-1 : end])
}

// ParseStructure reads ATOM/HETATM records from PDB text. Other records are
// ignored except CONECT. Bonds are always inferred by distance; CONECT
// pairs are merged on top, adding missing bonds and raising bond order. A
// malformed coordinate fails the whole parse.
func ParseStructure(text string) (*Graph, error) {
	return ParseStructureWith(text, DistanceRule(BondingThreshold))
}

// ParseStructureWith is ParseStructure with rule deciding inferred bonds.
func ParseStructureWith(text string, rule BondRule) (*Graph, error) {
	var (
		atoms    []Atom
		bySerial = map[int]int{}
		links    = map[[2]int]int{}
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		switch column(line, colRecord, colRecordE) {
		case "ATOM", "HETATM":
			atom, err := parseAtomRecord(line, lineNo)
			if err != nil {
				return nil, err
			}
			if atom.Serial != 0 {
				bySerial[atom.Serial] = len(atoms)
			}
			atoms = append(atoms, atom)
		case "CONECT":
			if err := parseConect(line, lineNo, links); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, code.ValidationErr.WithErr(err)
	}

	bonds := InferBondsWith(atoms, rule)
	if len(links) > 0 {
		bonds = mergeBonds(bonds, conectBonds(links, bySerial))
	}
	return &Graph{Atoms: atoms, Bonds: bonds}, nil
}

// mergeBonds adds explicit bonds missing from inferred and keeps the higher
// order where both list a pair.
func mergeBonds(inferred, explicit []Bond) []Bond {
	index := make(map[[2]int]int, len(inferred))
	for i, b := range inferred {
		index[[2]int{b.First, b.Second}] = i
	}
	for _, b := range explicit {
		if i, ok := index[[2]int{b.First, b.Second}]; ok {
			inferred[i].Order = max(inferred[i].Order, b.Order)
			continue
		}
		inferred = append(inferred, b)
	}
	sortBonds(inferred)
	return inferred
}

func parseAtomRecord(line string, lineNo int) (Atom, error) {
	var pos [3]float64
	fields := [3][2]int{{colX, colXE}, {colY, colYE}, {colZ, colZE}}
	for i, f := range fields {
		raw := column(line, f[0], f[1])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Atom{}, code.ValidationErr.WithMsgf("line %d: bad %c coordinate %q in columns %d-%d",
				lineNo, "xyz"[i], raw, f[0], f[1])
		}
		pos[i] = v
	}

	name := column(line, colName, colNameE)
	element := NormalizeElement(column(line, colElement, colElemE))
	if element == "" {
		element = elementFromName(line)
	}
	if element == "" {
		return Atom{}, code.ValidationErr.WithMsgf("line %d: no element symbol in columns %d-%d or atom name",
			lineNo, colElement, colElemE)
	}

	serial, _ := strconv.Atoi(column(line, colSerial, colSerialE))
	resSeq, _ := strconv.Atoi(column(line, colResSeq, colResSeqE))
	return Atom{
		Element:  element,
		Position: Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
		Serial:   serial,
		Name:     name,
		Residue:  column(line, colResName, colResE),
		Chain:    column(line, colChain, colChain),
		ResSeq:   resSeq,
		Hetero:   column(line, colRecord, colRecordE) == "HETATM",
	}, nil
}

// elementFromName derives the element from the atom name field. Names that
// start in column 13 may carry a two letter element ("FE", "CL"); names
// starting in column 14 are single letter elements (" CA " is an alpha
// carbon).
func elementFromName(line string) string {
	if len(line) < colName {
		return ""
	}
	field := line[colName-1 : min(len(line), colNameE)]
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, field)
	if letters == "" {
		return ""
	}

	if unicode.IsLetter(rune(field[0])) && len(letters) >= 2 {
		if two := NormalizeElement(letters[:2]); knownElement(two) && two != "H" {
			return two
		}
	}
	return NormalizeElement(letters[:1])
}

func parseConect(line string, lineNo int, links map[[2]int]int) error {
	from, err := strconv.Atoi(column(line, colSerial, colSerialE))
	if err != nil {
		return code.ValidationErr.WithMsgf("line %d: bad CONECT serial %q", lineNo, column(line, colSerial, colSerialE))
	}
	for start := 12; start <= 27; start += 5 {
		raw := column(line, start, start+4)
		if raw == "" {
			continue
		}
		to, err := strconv.Atoi(raw)
		if err != nil {
			return code.ValidationErr.WithMsgf("line %d: bad CONECT partner %q", lineNo, raw)
		}
		links[[2]int{from, to}]++
	}
	return nil
}

// conectBonds folds directed CONECT counts into unordered bonds. A pair is
// usually listed from both ends, so the order is the larger of the two
// directed counts; repeated listings encode multiple bonds.
func conectBonds(links map[[2]int]int, bySerial map[int]int) []Bond {
	orders := map[[2]int]int{}
	for k, n := range links {
		a, okA := bySerial[k[0]]
		b, okB := bySerial[k[1]]
		if !okA || !okB || a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		p := [2]int{a, b}
		orders[p] = max(orders[p], n)
	}

	bonds := make([]Bond, 0, len(orders))
	for p, n := range orders {
		bonds = append(bonds, Bond{First: p[0], Second: p[1], Order: min(n, maxBondOrder)})
	}
	sortBonds(bonds)
	return bonds
}
