package arena

import (
    "context"
    "fmt"
    "math/rand"
    "sync"
    "sync/atomic"

    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
)

/*
Arena plays a series of games between two strategies. Each worker builds its
own strategies from the factories, so random sources are never shared
between goroutines.
*/

// Factory builds a fresh strategy for one worker.
type Factory func() ai.Strategy

// FromDifficulty returns a factory for d, seeding each instance from seed.
func FromDifficulty(d ai.Difficulty, seed func() int64) (Factory, error) {
    if !d.Valid() {
        return nil, fmt.Errorf("%w: %d", ai.ErrInvalidDifficulty, d)
    }
    return func() ai.Strategy {
        s, _ := ai.New(d, newRand(seed()))
        return s
    }, nil
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// Stats counts finished games. Safe for concurrent use.
type Stats struct {
    xWins uint32
    oWins uint32
    draws uint32
}

func (s *Stats) XWins() int { return int(atomic.LoadUint32(&s.xWins)) }
func (s *Stats) OWins() int { return int(atomic.LoadUint32(&s.oWins)) }
func (s *Stats) Draws() int { return int(atomic.LoadUint32(&s.draws)) }
func (s *Stats) Total() int { return s.XWins() + s.OWins() + s.Draws() }

func (s *Stats) record(g *domain.Game) {
    switch {
    case g.Outcome == domain.Draw:
        atomic.AddUint32(&s.draws, 1)
    case g.Winner == domain.X:
        atomic.AddUint32(&s.xWins, 1)
    case g.Winner == domain.O:
        atomic.AddUint32(&s.oWins, 1)
    }
}

// Summary is the printable result of a run.
type Summary struct {
    TotalGames int    `json:"total_games"`
    XWins      int    `json:"x_wins"`
    OWins      int    `json:"o_wins"`
    Draws      int    `json:"draws"`
    Workers    int    `json:"workers"`
    XName      string `json:"x_name"`
    OName      string `json:"o_name"`
}

// Arena runs Games games of X against O on Workers goroutines.
type Arena struct {
    Stats
    X       Factory
    O       Factory
    Games   int
    Workers int
    Log     *zap.Logger
}

func New(x, o Factory) *Arena {
    return &Arena{X: x, O: o, Games: 100, Workers: 2, Log: zap.NewNop()}
}

// PlayGame plays one full game and returns the final state.
func PlayGame(x, o ai.Strategy) (domain.Game, error) {
    g := domain.New()
    for !g.Over() {
        s := x
        if g.Turn == domain.O {
            s = o
        }
        b := g.Board
        p, ok := s.Choose(&b, g.Turn, g.Turn.Opponent())
        if !ok {
            return g, fmt.Errorf("%s found no move on %v", s.Name(), g.Board)
        }
        if err := g.Play(p); err != nil {
            return g, fmt.Errorf("%s played %d: %w", s.Name(), p, err)
        }
    }
    return g, nil
}

// Run plays the configured games and stops early when ctx is done.
func (a *Arena) Run(ctx context.Context) (Summary, error) {
    workers := a.Workers
    if workers < 1 {
        workers = 1
    }
    log := a.Log
    if log == nil {
        log = zap.NewNop()
    }
    jobs := make(chan int)
    var (
        wg       sync.WaitGroup
        errOnce  sync.Once
        firstErr error
    )
    for w := 0; w < workers; w++ {
        wg.Add(1)
        go func(id int) {
            defer wg.Done()
            x, o := a.X(), a.O()
            for range jobs {
                g, err := PlayGame(x, o)
                if err != nil {
                    errOnce.Do(func() { firstErr = err })
                    continue
                }
                a.record(&g)
            }
            log.Debug("worker done", zap.Int("worker", id))
        }(w)
    }

feed:
    for i := 0; i < a.Games; i++ {
        select {
        case <-ctx.Done():
            break feed
        case jobs <- i:
        }
    }
    close(jobs)
    wg.Wait()

    sum := a.Summary(workers)
    log.Info("arena finished",
        zap.Int("games", sum.TotalGames),
        zap.Int("x_wins", sum.XWins),
        zap.Int("o_wins", sum.OWins),
        zap.Int("draws", sum.Draws))
    if firstErr != nil {
        return sum, firstErr
    }
    return sum, ctx.Err()
}

// Summary snapshots the counters.
func (a *Arena) Summary(workers int) Summary {
    sum := Summary{
        TotalGames: a.Total(),
        XWins:      a.XWins(),
        OWins:      a.OWins(),
        Draws:      a.Draws(),
        Workers:    workers,
    }
    if a.X != nil {
        sum.XName = a.X().Name()
    }
    if a.O != nil {
        sum.OName = a.O().Name()
    }
    return sum
}
