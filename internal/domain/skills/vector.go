// Package skills infers CASI skill vectors from practice history and
// compares riders by them.
package skills

import (
	"math"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// zeroMagnitude is the squared norm below which a vector counts as "no data".
const zeroMagnitude = 1e-12

// Similarity returns the cosine similarity of two skill vectors in [0,1].
//
// The same user is always 1. Two vectors without data are treated as
// identical (1); a vector without data never resembles one with data (0).
func Similarity(a, b model.SkillVector) float64 {
	if a.UserID != "" && a.UserID == b.UserID {
		return 1.0
	}
	av, bv := a.Values(), b.Values()
	var dot, na, nb float64
	for i := range av {
		dot += av[i] * bv[i]
		na += av[i] * av[i]
		nb += bv[i] * bv[i]
	}
	aZero, bZero := na < zeroMagnitude, nb < zeroMagnitude
	switch {
	case aZero && bZero:
		return 1.0
	case aZero || bZero:
		return 0.0
	}
	return model.Clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Scale multiplies every component by k without clamping. It exists for
// comparing vector shapes independent of magnitude.
func Scale(v model.SkillVector, k float64) model.SkillVector {
	vals := v.Values()
	v.StanceBalance = vals[0] * k
	v.Rotation = vals[1] * k
	v.Edging = vals[2] * k
	v.Pressure = vals[3] * k
	v.TimingCoordination = vals[4] * k
	return v
}
