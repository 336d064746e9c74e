package bracket

import (
	"math/rand"

	"github.com/google/uuid"
)

// Rand is the randomness source consumed by Shuffle. Injecting it keeps
// draft seeding testable; production wiring uses NewRand.
type Rand interface {
	IntN(n int) int
}

func NewRand() Rand {
	return stdRand{}
}

type stdRand struct{}

func (stdRand) IntN(n int) int { return rand.Intn(n) }

// Shuffle permutes ids in place using Fisher-Yates. Zero- and one-element
// inputs are returned unchanged.
func Shuffle(r Rand, ids []uuid.UUID) {
	for i := len(ids) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
