package app

import (
    "context"
    "errors"
    "math/rand"
    "sync"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/session"
)

// Errors exposed by the service layer.
var (
    ErrNotFound = errors.New("game not found")
    // ErrStaleMove rejects a scheduled computer move after the game changed.
    ErrStaleMove = errors.New("scheduled move is stale")
)

// GameState is the copy of a session handed to callers and subscribers.
type GameState struct {
    ID       string
    Snapshot session.Snapshot
    Created  time.Time
    Updated  time.Time
}

type entry struct {
    id      string
    sess    *session.Session
    gen     uint64 // bumped on every change
    created time.Time
    updated time.Time
}

func (e *entry) state() GameState {
    return GameState{ID: e.id, Snapshot: e.sess.Snapshot(), Created: e.created, Updated: e.updated}
}

type subscriber struct {
    mu     sync.Mutex
    ch     chan GameState
    closed bool
}

func (s *subscriber) close() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if !s.closed {
        s.closed = true
        close(s.ch)
    }
}

// trySend delivers gs without blocking. It reports false when the buffer is full.
func (s *subscriber) trySend(gs GameState) bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.closed {
        return true
    }
    select {
    case s.ch <- gs:
        return true
    default:
        return false
    }
}

// Options configure a Service.
type Options struct {
    // AIDelay postpones the computer's reply so it looks like thinking.
    AIDelay   time.Duration
    HumanMark domain.Cell
    // Seed feeds the per-game random sources; 0 seeds from the clock.
    Seed int64
    Log  *zap.Logger
}

// Service manages sessions and subscribers for the web front end.
type Service struct {
    mu      sync.Mutex
    games   map[string]*entry
    subs    map[string]map[*subscriber]struct{}
    opts    Options
    log     *zap.Logger
    seedSeq int64
    timers  sync.WaitGroup
}

// NewService creates a service with default options.
func NewService() *Service { return NewServiceWithOptions(Options{}) }

// NewServiceWithOptions allows tuning delay, marks and logging.
func NewServiceWithOptions(opts Options) *Service {
    log := opts.Log
    if log == nil {
        log = zap.NewNop()
    }
    if !opts.HumanMark.IsMark() {
        opts.HumanMark = domain.X
    }
    return &Service{
        games: make(map[string]*entry),
        subs:  make(map[string]map[*subscriber]struct{}),
        opts:  opts,
        log:   log,
    }
}

func (s *Service) newRandLocked() *rand.Rand {
    s.seedSeq++
    seed := time.Now().UnixNano()
    if s.opts.Seed != 0 {
        seed = s.opts.Seed + s.seedSeq
    }
    return rand.New(rand.NewSource(seed))
}

// CreateGame creates and registers a new session waiting for a mode.
func (s *Service) CreateGame() (*GameState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id := uuid.NewString()
    now := time.Now()
    e := &entry{
        id: id,
        sess: session.New(
            session.WithDeferredAI(),
            session.WithHumanMark(s.opts.HumanMark),
            session.WithRand(s.newRandLocked()),
            session.WithLogger(s.log.With(zap.String("game", id))),
        ),
        created: now,
        updated: now,
    }
    s.games[id] = e
    s.log.Info("game created", zap.String("id", id))
    gs := e.state()
    return &gs, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.games[id]
    if !ok {
        return nil, false
    }
    gs := e.state()
    return &gs, true
}

// Start binds mode and difficulty in one step.
func (s *Service) Start(id string, mode session.Mode, d ai.Difficulty) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        _, err := ss.Start(mode, d)
        return err
    })
}

// SelectMode forwards to the session.
func (s *Service) SelectMode(id string, mode session.Mode) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        _, err := ss.SelectMode(mode)
        return err
    })
}

// SelectDifficulty forwards to the session.
func (s *Service) SelectDifficulty(id string, d ai.Difficulty) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        _, err := ss.SelectDifficulty(d)
        return err
    })
}

// Play applies a human move, then schedules the computer's reply if due.
func (s *Service) Play(id string, p domain.Position) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        _, err := ss.HumanMove(p)
        return err
    })
}

// Reset restarts the match with the same mode.
func (s *Service) Reset(id string) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        ss.Reset()
        return nil
    })
}

// ChangeMode abandons the match and returns to mode selection.
func (s *Service) ChangeMode(id string) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        ss.ChangeMode()
        return nil
    })
}

// PlayAI lets the computer move now. It is what the delayed trigger calls.
func (s *Service) PlayAI(id string) (*GameState, error) {
    return s.update(id, func(ss *session.Session) error {
        _, err := ss.PlayAI()
        return err
    })
}

// Wait blocks until every scheduled computer move has run.
func (s *Service) Wait() { s.timers.Wait() }

// update runs fn under the lock, broadcasts on success and schedules the
// computer's move when the session is waiting for it.
func (s *Service) update(id string, fn func(*session.Session) error) (*GameState, error) {
    return s.apply(id, nil, fn)
}

// apply is update with an optional generation guard: when gen is set, fn
// only runs if nothing changed the game since gen was taken.
func (s *Service) apply(id string, gen *uint64, fn func(*session.Session) error) (*GameState, error) {
    s.mu.Lock()
    e, ok := s.games[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    if gen != nil && *gen != e.gen {
        gs := e.state()
        s.mu.Unlock()
        return &gs, ErrStaleMove
    }
    if err := fn(e.sess); err != nil {
        gs := e.state()
        s.mu.Unlock()
        return &gs, err
    }
    e.gen++
    e.updated = time.Now()
    gs := e.state()
    cur := e.gen
    subs := s.copySubsLocked(id)
    s.mu.Unlock()

    s.broadcast(id, subs, gs)
    if gs.Snapshot.AIPending && s.scheduleAI(id, cur) {
        if latest, ok := s.Get(id); ok {
            return latest, nil
        }
    }
    return &gs, nil
}

// scheduleAI reports true when the move already ran inline. A move scheduled
// before a reset, mode change or any other update is dropped.
func (s *Service) scheduleAI(id string, gen uint64) bool {
    s.timers.Add(1)
    run := func() {
        defer s.timers.Done()
        _, err := s.apply(id, &gen, func(ss *session.Session) error {
            _, err := ss.PlayAI()
            return err
        })
        if err != nil {
            s.log.Debug("scheduled ai move skipped", zap.String("id", id), zap.Error(err))
        }
    }
    if s.opts.AIDelay <= 0 {
        run()
        return true
    }
    time.AfterFunc(s.opts.AIDelay, run)
    return false
}

func (s *Service) broadcast(id string, subs map[*subscriber]struct{}, gs GameState) {
    var toDrop []*subscriber
    // Fan-out; drop slow subscribers by closing and marking for deletion
    for sub := range subs {
        if !sub.trySend(gs) {
            sub.close()
            toDrop = append(toDrop, sub)
        }
    }
    if len(toDrop) > 0 {
        s.mu.Lock()
        for _, sub := range toDrop {
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
        }
        s.mu.Unlock()
        s.log.Debug("dropped slow subscribers", zap.String("id", id), zap.Int("count", len(toDrop)))
    }
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan GameState, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.games[id]; !ok {
        return nil, func() {}, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan GameState, 4)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}
