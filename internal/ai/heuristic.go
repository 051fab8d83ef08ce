package ai

import (
    "math/rand"

    "github.com/jaminalder/triki/internal/domain"
)

const center domain.Position = 4

// Heuristic wins when it can, blocks when it must, takes the center if
// free and otherwise plays at random.
type Heuristic struct {
    fallback *Random
}

func NewHeuristic(rng *rand.Rand) *Heuristic {
    return &Heuristic{fallback: NewRandom(rng)}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Choose(b *domain.Board, aiMark, humanMark domain.Cell) (domain.Position, bool) {
    if b.IsFull() {
        return 0, false
    }
    if p, ok := findWinningMove(b, aiMark); ok {
        return p, true
    }
    if p, ok := findWinningMove(b, humanMark); ok {
        return p, true
    }
    if b[center] == domain.Empty {
        return center, true
    }
    return h.fallback.Choose(b, aiMark, humanMark)
}

// findWinningMove returns the lowest empty position that completes a line
// for mark.
func findWinningMove(b *domain.Board, mark domain.Cell) (domain.Position, bool) {
    for _, p := range b.AvailableMoves() {
        if err := b.ApplyMove(p, mark); err != nil {
            continue
        }
        won := b.CheckWinner(mark)
        b.UndoMove(p)
        if won {
            return p, true
        }
    }
    return 0, false
}
