package ai

import (
    "errors"
    "fmt"
    "math/rand"
    "strings"

    "github.com/jaminalder/triki/internal/domain"
)

// Strategy picks a move for the AI. The board is restored before Choose
// returns; ok is false only when no moves remain.
type Strategy interface {
    Name() string
    Choose(b *domain.Board, aiMark, humanMark domain.Cell) (p domain.Position, ok bool)
}

// Difficulty selects a strategy.
type Difficulty uint8

const (
    Easy Difficulty = iota + 1
    Medium
    Hard
)

// ErrInvalidDifficulty is returned for unknown difficulty input.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

func (d Difficulty) String() string {
    switch d {
    case Easy:
        return "easy"
    case Medium:
        return "medium"
    case Hard:
        return "hard"
    default:
        return ""
    }
}

// Valid reports whether d names a known difficulty.
func (d Difficulty) Valid() bool { return d >= Easy && d <= Hard }

// ParseDifficulty accepts a name or its menu number.
func ParseDifficulty(s string) (Difficulty, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "easy", "1":
        return Easy, nil
    case "medium", "2":
        return Medium, nil
    case "hard", "3":
        return Hard, nil
    }
    return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

// New returns the strategy for d. rng feeds the random parts; nil uses a
// time-seeded source.
func New(d Difficulty, rng *rand.Rand) (Strategy, error) {
    switch d {
    case Easy:
        return NewRandom(rng), nil
    case Medium:
        return NewHeuristic(rng), nil
    case Hard:
        return Minimax{}, nil
    }
    return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, d)
}
