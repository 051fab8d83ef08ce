package ai

import (
    "math"

    "github.com/jaminalder/triki/internal/domain"
)

// Minimax searches the full game tree without pruning. Ties at the root go
// to the lowest position.
type Minimax struct{}

func (Minimax) Name() string { return "minimax" }

func (m Minimax) Choose(b *domain.Board, aiMark, humanMark domain.Cell) (domain.Position, bool) {
    best := math.MinInt
    var move domain.Position
    found := false
    for _, p := range b.AvailableMoves() {
        if err := b.ApplyMove(p, aiMark); err != nil {
            continue
        }
        score := m.Score(b, 0, false, aiMark, humanMark)
        b.UndoMove(p)
        if score > best {
            best = score
            move = p
            found = true
        }
    }
    return move, found
}

// Score rates b from the AI's point of view: 10-depth for an AI win,
// depth-10 for a loss and 0 for a draw. maximizing tells whose turn it is.
func (m Minimax) Score(b *domain.Board, depth int, maximizing bool, aiMark, humanMark domain.Cell) int {
    switch {
    case b.CheckWinner(aiMark):
        return 10 - depth
    case b.CheckWinner(humanMark):
        return depth - 10
    case b.IsFull():
        return 0
    }

    mark, best := humanMark, math.MaxInt
    if maximizing {
        mark, best = aiMark, math.MinInt
    }
    for _, p := range b.AvailableMoves() {
        if err := b.ApplyMove(p, mark); err != nil {
            continue
        }
        score := m.Score(b, depth+1, !maximizing, aiMark, humanMark)
        b.UndoMove(p)
        if maximizing && score > best || !maximizing && score < best {
            best = score
        }
    }
    return best
}
