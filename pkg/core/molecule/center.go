package molecule

// Centroid is the mean atom position. An empty slice has the origin as its
// centroid.
func Centroid(atoms []Atom) Vec3 {
	if len(atoms) == 0 {
		return Vec3{}
	}
	var sum Vec3
	for _, a := range atoms {
		sum = sum.Add(a.Position)
	}
	return sum.Scale(1 / float64(len(atoms)))
}

// Center returns a copy of atoms translated so the centroid is at the origin.
func Center(atoms []Atom) []Atom {
	return Translate(atoms, Centroid(atoms).Scale(-1))
}

func Translate(atoms []Atom, by Vec3) []Atom {
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		a.Position = a.Position.Add(by)
		out[i] = a
	}
	return out
}
