package domain

// Outcome describes how a game stands.
type Outcome uint8

const (
    Ongoing Outcome = iota
    Win
    Draw
)

func (o Outcome) String() string {
    switch o {
    case Win:
        return "win"
    case Draw:
        return "draw"
    default:
        return "ongoing"
    }
}

// Game holds the current state of a Tic-Tac-Toe match.
type Game struct {
    Board    Board
    Turn     Cell
    Outcome  Outcome
    Winner   Cell
    Line     Line
    Moves    int
    LastMove Position
}

// New returns a new game with X to move.
func New() Game {
    return Game{Turn: X, LastMove: -1}
}

// Over reports whether the game reached a terminal outcome.
func (g *Game) Over() bool { return g.Outcome != Ongoing }

// Reset clears the board and gives the move back to X.
func (g *Game) Reset() { *g = New() }

// PlayAt plays the current turn at row r, column c (0..2).
func (g *Game) PlayAt(r, c int) error {
    p, err := PositionAt(r, c)
    if err != nil {
        return err
    }
    return g.Play(p)
}

// Play attempts to play the current turn at p.
func (g *Game) Play(p Position) error {
    if g.Over() {
        return ErrGameOver
    }
    if err := g.Board.ApplyMove(p, g.Turn); err != nil {
        return err
    }
    g.Moves++
    g.LastMove = p

    // Check for a win
    if ln, ok := g.Board.WinningLine(g.Turn); ok {
        g.Outcome = Win
        g.Winner = g.Turn
        g.Line = ln
        return nil
    }

    // Check for draw
    if g.Board.IsFull() {
        g.Outcome = Draw
        g.Winner = Empty
        return nil
    }

    g.Turn = g.Turn.Opponent()
    return nil
}
