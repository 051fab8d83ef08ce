package domain

import (
    "errors"
    "fmt"
)

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return ""
    }
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
    switch c {
    case X:
        return O
    case O:
        return X
    default:
        return Empty
    }
}

// IsMark reports whether c is X or O.
func (c Cell) IsMark() bool { return c == X || c == O }

// ParseMark accepts "X" or "O" in either case.
func ParseMark(s string) (Cell, error) {
    switch s {
    case "X", "x":
        return X, nil
    case "O", "o":
        return O, nil
    }
    return Empty, fmt.Errorf("%w: %q", ErrInvalidMark, s)
}

// Position addresses a cell, 0..8 row-major.
type Position int

// PositionAt converts a row/column pair (0..2 each) to a Position.
func PositionAt(r, c int) (Position, error) {
    if r < 0 || r > 2 || c < 0 || c > 2 {
        return 0, ErrOutOfBounds
    }
    return Position(r*3 + c), nil
}

func (p Position) Row() int    { return int(p) / 3 }
func (p Position) Col() int    { return int(p) % 3 }
func (p Position) Valid() bool { return p >= 0 && p <= 8 }

// Line is one of the winning triples.
type Line [3]Position

// Lines holds every winning triple: rows, columns, diagonals.
var Lines = [8]Line{
    // rows
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    // cols
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    // diags
    {0, 4, 8}, {2, 4, 6},
}

// Contains reports whether p is part of the line.
func (l Line) Contains(p Position) bool {
    return l[0] == p || l[1] == p || l[2] == p
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Errors returned by domain operations. Every move rejection wraps ErrInvalidMove.
var (
    ErrInvalidMove = errors.New("invalid move")
    ErrOutOfBounds = fmt.Errorf("%w: out of bounds", ErrInvalidMove)
    ErrOccupied    = fmt.Errorf("%w: cell occupied", ErrInvalidMove)
    ErrGameOver    = fmt.Errorf("%w: game over", ErrInvalidMove)
    ErrInvalidMark = fmt.Errorf("%w: mark must be X or O", ErrInvalidMove)
)

// AvailableMoves returns the empty positions in ascending order.
func (b *Board) AvailableMoves() []Position {
    out := make([]Position, 0, 9)
    for i, c := range b {
        if c == Empty {
            out = append(out, Position(i))
        }
    }
    return out
}

// ApplyMove places mark at p. The board is untouched on error.
func (b *Board) ApplyMove(p Position, mark Cell) error {
    if !p.Valid() {
        return ErrOutOfBounds
    }
    if !mark.IsMark() {
        return ErrInvalidMark
    }
    if b[p] != Empty {
        return ErrOccupied
    }
    b[p] = mark
    return nil
}

// UndoMove clears p. Search code pairs every ApplyMove with an UndoMove
// before returning.
func (b *Board) UndoMove(p Position) {
    if p.Valid() {
        b[p] = Empty
    }
}

// CheckWinner reports whether mark owns a full line.
func (b *Board) CheckWinner(mark Cell) bool {
    _, ok := b.WinningLine(mark)
    return ok
}

// WinningLine returns the first line fully owned by mark.
func (b *Board) WinningLine(mark Cell) (Line, bool) {
    if !mark.IsMark() {
        return Line{}, false
    }
    for _, ln := range Lines {
        if b[ln[0]] == mark && b[ln[1]] == mark && b[ln[2]] == mark {
            return ln, true
        }
    }
    return Line{}, false
}

// IsFull reports whether no cell is empty.
func (b *Board) IsFull() bool {
    for _, c := range b {
        if c == Empty {
            return false
        }
    }
    return true
}

// IsDraw reports a full board with no winner.
func (b *Board) IsDraw() bool {
    return b.IsFull() && !b.CheckWinner(X) && !b.CheckWinner(O)
}
