package ai

import (
    "math/rand"
    "time"

    "github.com/jaminalder/triki/internal/domain"
)

// Random plays uniformly among the empty cells.
type Random struct {
    rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
    if rng == nil {
        rng = rand.New(rand.NewSource(time.Now().UnixNano()))
    }
    return &Random{rng: rng}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Choose(b *domain.Board, _, _ domain.Cell) (domain.Position, bool) {
    moves := b.AvailableMoves()
    if len(moves) == 0 {
        return 0, false
    }
    return moves[r.rng.Intn(len(moves))], true
}
