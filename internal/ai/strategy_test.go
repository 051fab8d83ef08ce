package ai

import (
    "errors"
    "math/rand"
    "testing"

    "github.com/jaminalder/triki/internal/domain"
)

const (
    x = domain.X
    o = domain.O
    e = domain.Empty
)

func newRand() *rand.Rand { return rand.New(rand.NewSource(7)) }

func TestParseDifficulty(t *testing.T) {
    cases := map[string]Difficulty{"easy": Easy, "Medium": Medium, " hard ": Hard, "1": Easy, "2": Medium, "3": Hard}
    for in, want := range cases {
        got, err := ParseDifficulty(in)
        if err != nil || got != want {
            t.Fatalf("ParseDifficulty(%q) = %v, %v; want %v", in, got, err, want)
        }
    }
    for _, in := range []string{"", "4", "impossible"} {
        if _, err := ParseDifficulty(in); !errors.Is(err, ErrInvalidDifficulty) {
            t.Fatalf("ParseDifficulty(%q): expected ErrInvalidDifficulty, got %v", in, err)
        }
    }
}

func TestNewByDifficulty(t *testing.T) {
    want := map[Difficulty]string{Easy: "random", Medium: "heuristic", Hard: "minimax"}
    for d, name := range want {
        s, err := New(d, newRand())
        if err != nil {
            t.Fatalf("New(%v): %v", d, err)
        }
        if s.Name() != name {
            t.Fatalf("New(%v) = %s, want %s", d, s.Name(), name)
        }
    }
    if _, err := New(Difficulty(9), nil); !errors.Is(err, ErrInvalidDifficulty) {
        t.Fatalf("expected ErrInvalidDifficulty, got %v", err)
    }
}

func TestStrategiesLeaveBoardUntouched(t *testing.T) {
    b := domain.Board{x, e, e, e, o, e, e, e, x}
    before := b
    for _, s := range []Strategy{NewRandom(newRand()), NewHeuristic(newRand()), Minimax{}} {
        p, ok := s.Choose(&b, o, x)
        if !ok {
            t.Fatalf("%s: expected a move", s.Name())
        }
        if before[p] != e {
            t.Fatalf("%s: chose occupied cell %d", s.Name(), p)
        }
        if b != before {
            t.Fatalf("%s: board changed during search", s.Name())
        }
    }
}

func TestStrategiesOnFullBoard(t *testing.T) {
    b := domain.Board{x, o, x, x, o, o, o, x, x}
    for _, s := range []Strategy{NewRandom(newRand()), NewHeuristic(newRand()), Minimax{}} {
        if _, ok := s.Choose(&b, o, x); ok {
            t.Fatalf("%s: expected no move on a full board", s.Name())
        }
    }
}

func TestRandomCoversEveryMove(t *testing.T) {
    r := NewRandom(newRand())
    b := domain.Board{x, e, o, e, e, e, o, e, x}
    seen := map[domain.Position]int{}
    for i := 0; i < 500; i++ {
        p, ok := r.Choose(&b, o, x)
        if !ok || b[p] != e {
            t.Fatalf("bad random move %d", p)
        }
        seen[p]++
    }
    for _, p := range b.AvailableMoves() {
        if seen[p] == 0 {
            t.Fatalf("position %d never chosen in 500 draws: %v", p, seen)
        }
    }
}

func TestHeuristicBlocks(t *testing.T) {
    b := domain.Board{x, x, e, e, o, e, e, e, e}
    p, ok := NewHeuristic(newRand()).Choose(&b, o, x)
    if !ok || p != 2 {
        t.Fatalf("expected block at 2, got %d", p)
    }
}

func TestHeuristicPrefersWinOverBlock(t *testing.T) {
    // O can win at 2, X threatens 5.
    b := domain.Board{o, o, e, x, x, e, e, e, x}
    p, _ := NewHeuristic(newRand()).Choose(&b, o, x)
    if p != 2 {
        t.Fatalf("expected win at 2, got %d", p)
    }
}

func TestHeuristicWinScanIsAscending(t *testing.T) {
    // O completes either 0-3-6 at 6 or 2-5-8 at 2; lowest index wins.
    b := domain.Board{o, x, e, o, x, o, e, e, o}
    p, _ := NewHeuristic(newRand()).Choose(&b, o, x)
    if p != 2 {
        t.Fatalf("expected 2, got %d", p)
    }
}

func TestHeuristicTakesCenter(t *testing.T) {
    b := domain.Board{x, e, e, e, e, e, e, e, e}
    p, _ := NewHeuristic(newRand()).Choose(&b, o, x)
    if p != 4 {
        t.Fatalf("expected center, got %d", p)
    }
}

func TestHeuristicFallsBackToRandom(t *testing.T) {
    b := domain.Board{x, e, e, e, o, e, e, e, e}
    h := NewHeuristic(newRand())
    for i := 0; i < 50; i++ {
        p, ok := h.Choose(&b, o, x)
        if !ok || b[p] != e {
            t.Fatalf("fallback chose bad cell %d", p)
        }
    }
}

func TestMinimaxReferenceMoves(t *testing.T) {
    cases := []struct {
        name  string
        board domain.Board
        ai    domain.Cell
        want  domain.Position
    }{
        // every opening draws, so the lowest index wins the tie
        {"empty board", domain.Board{}, x, 0},
        {"answer corner with center", domain.Board{x, e, e, e, e, e, e, e, e}, o, 4},
        {"answer center with corner", domain.Board{e, e, e, e, x, e, e, e, e}, o, 0},
        {"block", domain.Board{x, x, e, e, o, e, e, e, e}, o, 2},
        {"win now", domain.Board{o, o, e, x, x, e, x, e, e}, o, 2},
    }
    for _, tc := range cases {
        b := tc.board
        for i := 0; i < 3; i++ {
            p, ok := Minimax{}.Choose(&b, tc.ai, tc.ai.Opponent())
            if !ok || p != tc.want {
                t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, p)
            }
            if b != tc.board {
                t.Fatalf("%s: board not restored", tc.name)
            }
        }
    }
}

func TestMinimaxScorePrefersFasterWins(t *testing.T) {
    var m Minimax
    won := domain.Board{o, o, o, x, x, e, x, e, e}
    if got := m.Score(&won, 0, true, o, x); got != 10 {
        t.Fatalf("expected 10, got %d", got)
    }
    if got := m.Score(&won, 3, true, o, x); got != 7 {
        t.Fatalf("expected 7, got %d", got)
    }
    if got := m.Score(&won, 2, true, x, o); got != -8 {
        t.Fatalf("expected -8, got %d", got)
    }
    draw := domain.Board{x, o, x, x, o, o, o, x, x}
    if got := m.Score(&draw, 4, false, x, o); got != 0 {
        t.Fatalf("expected 0, got %d", got)
    }
}

// Every line of play by the human against Minimax ends in an AI win or a
// draw, whichever mark the AI holds.
func TestMinimaxNeverLoses(t *testing.T) {
    for _, aiMark := range []domain.Cell{x, o} {
        games := 0
        var walk func(g domain.Game)
        walk = func(g domain.Game) {
            if g.Over() {
                games++
                if g.Outcome == domain.Win && g.Winner != aiMark {
                    t.Fatalf("AI %v lost: %v", aiMark, g.Board)
                }
                return
            }
            if g.Turn == aiMark {
                b := g.Board
                p, ok := Minimax{}.Choose(&b, aiMark, aiMark.Opponent())
                if !ok {
                    t.Fatalf("no move on %v", g.Board)
                }
                if err := g.Play(p); err != nil {
                    t.Fatalf("play %d: %v", p, err)
                }
                walk(g)
                return
            }
            for _, p := range g.Board.AvailableMoves() {
                next := g
                if err := next.Play(p); err != nil {
                    t.Fatalf("play %d: %v", p, err)
                }
                walk(next)
            }
        }
        walk(domain.New())
        if games == 0 {
            t.Fatalf("no games played for AI %v", aiMark)
        }
    }
}
