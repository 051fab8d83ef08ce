package app

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/session"
)

func mustStart(t *testing.T, s *Service, id string, mode session.Mode, d ai.Difficulty) {
    t.Helper()
    if _, err := s.Start(id, mode, d); err != nil {
        t.Fatalf("Start: %v", err)
    }
}

func TestCreateAndGet(t *testing.T) {
    s := NewService()
    gs, err := s.CreateGame()
    if err != nil {
        t.Fatalf("CreateGame error: %v", err)
    }
    if gs.ID == "" {
        t.Fatalf("expected non-empty game ID")
    }
    if gs.Snapshot.State != session.ModeSelect {
        t.Fatalf("expected mode select, got %v", gs.Snapshot.State)
    }
    if gs.Created.IsZero() || gs.Updated.IsZero() {
        t.Fatalf("expected timestamps to be set")
    }
    got, ok := s.Get(gs.ID)
    if !ok || got.ID != gs.ID {
        t.Fatalf("Get should find created game")
    }
    if _, ok := s.Get("nope"); ok {
        t.Fatalf("Get should miss unknown id")
    }
}

func TestUnknownGame(t *testing.T) {
    s := NewService()
    if _, err := s.Play("missing", 0); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound, got %v", err)
    }
    if _, _, err := s.Subscribe(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
        t.Fatalf("expected ErrNotFound on subscribe, got %v", err)
    }
}

func TestTwoHumanFlow(t *testing.T) {
    s := NewService()
    gs, _ := s.CreateGame()
    if _, err := s.SelectMode(gs.ID, session.TwoHuman); err != nil {
        t.Fatalf("SelectMode: %v", err)
    }
    var st *GameState
    for _, p := range []domain.Position{0, 4, 1, 7, 2} {
        var err error
        if st, err = s.Play(gs.ID, p); err != nil {
            t.Fatalf("play %d: %v", p, err)
        }
    }
    if st.Snapshot.State != session.Terminal || st.Snapshot.Winner != domain.X {
        t.Fatalf("expected X win, got %+v", st.Snapshot)
    }
    st, err := s.Play(gs.ID, 8)
    if !errors.Is(err, domain.ErrInvalidMove) {
        t.Fatalf("expected invalid move after terminal, got %v", err)
    }
    if st == nil || st.Snapshot.Board[8] != domain.Empty {
        t.Fatalf("rejected move should return unchanged state")
    }
    st, _ = s.Reset(gs.ID)
    if st.Snapshot.State != session.Playing || st.Snapshot.Moves != 0 {
        t.Fatalf("expected fresh game after reset, got %+v", st.Snapshot)
    }
    st, _ = s.ChangeMode(gs.ID)
    if st.Snapshot.State != session.ModeSelect {
        t.Fatalf("expected mode select, got %v", st.Snapshot.State)
    }
}

func TestAIRepliesInlineWithoutDelay(t *testing.T) {
    s := NewService()
    gs, _ := s.CreateGame()
    if _, err := s.Start(gs.ID, session.HumanVsAI, ai.Hard); err != nil {
        t.Fatalf("Start: %v", err)
    }
    st, err := s.Play(gs.ID, 0)
    if err != nil {
        t.Fatalf("Play: %v", err)
    }
    if st.Snapshot.Board[4] != domain.O || st.Snapshot.AIPending {
        t.Fatalf("expected computer reply at center, got %+v", st.Snapshot)
    }
}

func TestAIReplyIsDelayed(t *testing.T) {
    s := NewServiceWithOptions(Options{AIDelay: 20 * time.Millisecond})
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.HumanVsAI, ai.Hard)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    ch, unsub, err := s.Subscribe(ctx, gs.ID)
    if err != nil {
        t.Fatalf("Subscribe: %v", err)
    }
    defer unsub()

    st, err := s.Play(gs.ID, 0)
    if err != nil {
        t.Fatalf("Play: %v", err)
    }
    if !st.Snapshot.AIPending || st.Snapshot.Board[4] != domain.Empty {
        t.Fatalf("computer should not have moved yet: %+v", st.Snapshot)
    }
    // human move, then computer move
    for i := 0; i < 2; i++ {
        select {
        case got, ok := <-ch:
            if !ok {
                t.Fatalf("channel closed unexpectedly")
            }
            st = &got
        case <-ctx.Done():
            t.Fatalf("timed out waiting for broadcast %d", i)
        }
    }
    if st.Snapshot.Board[4] != domain.O || st.Snapshot.AIPending {
        t.Fatalf("expected delayed computer reply, got %+v", st.Snapshot)
    }
    s.Wait()
}

func TestResetBeforeDelayedMoveSkipsIt(t *testing.T) {
    s := NewServiceWithOptions(Options{AIDelay: 30 * time.Millisecond})
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.HumanVsAI, ai.Easy)
    if _, err := s.Play(gs.ID, 4); err != nil {
        t.Fatalf("Play: %v", err)
    }
    if _, err := s.Reset(gs.ID); err != nil {
        t.Fatalf("Reset: %v", err)
    }
    s.Wait()
    st, _ := s.Get(gs.ID)
    if st.Snapshot.Moves != 0 {
        t.Fatalf("stale computer move applied after reset: %+v", st.Snapshot)
    }
}

func TestStaleScheduledMoveIsDropped(t *testing.T) {
    s := NewServiceWithOptions(Options{AIDelay: time.Hour})
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.HumanVsAI, ai.Hard)
    if _, err := s.Play(gs.ID, 0); err != nil {
        t.Fatalf("Play: %v", err)
    }
    s.mu.Lock()
    gen := s.games[gs.ID].gen
    s.mu.Unlock()

    if _, err := s.Reset(gs.ID); err != nil {
        t.Fatalf("Reset: %v", err)
    }
    st, err := s.Play(gs.ID, 8)
    if err != nil || !st.Snapshot.AIPending {
        t.Fatalf("expected pending reply to the new move, got %+v, %v", st, err)
    }

    // what the timer from the first move would run
    st, err = s.apply(gs.ID, &gen, func(ss *session.Session) error {
        _, err := ss.PlayAI()
        return err
    })
    if !errors.Is(err, ErrStaleMove) {
        t.Fatalf("expected ErrStaleMove, got %v", err)
    }
    if st.Snapshot.Moves != 1 || !st.Snapshot.AIPending {
        t.Fatalf("stale move changed the game: %+v", st.Snapshot)
    }

    // the current generation still gets its move
    if st, err = s.PlayAI(gs.ID); err != nil || st.Snapshot.Moves != 2 {
        t.Fatalf("expected computer reply, got %+v, %v", st, err)
    }
}

func TestResetThenMoveWaitsFullDelay(t *testing.T) {
    const delay = 150 * time.Millisecond
    s := NewServiceWithOptions(Options{AIDelay: delay})
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.HumanVsAI, ai.Hard)

    if _, err := s.Play(gs.ID, 0); err != nil {
        t.Fatalf("Play: %v", err)
    }
    time.Sleep(delay / 2)
    if _, err := s.Reset(gs.ID); err != nil {
        t.Fatalf("Reset: %v", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    ch, unsub, err := s.Subscribe(ctx, gs.ID)
    if err != nil {
        t.Fatalf("Subscribe: %v", err)
    }
    defer unsub()

    moved := time.Now()
    if _, err := s.Play(gs.ID, 8); err != nil {
        t.Fatalf("Play: %v", err)
    }
    for {
        select {
        case got, ok := <-ch:
            if !ok {
                t.Fatalf("channel closed unexpectedly")
            }
            if got.Snapshot.AIPending {
                continue
            }
            if waited := time.Since(moved); waited < delay*4/5 {
                t.Fatalf("computer answered after %v, before its own delay of %v", waited, delay)
            }
            if got.Snapshot.Board[8] != domain.X || got.Snapshot.Moves != 2 {
                t.Fatalf("unexpected reply %+v", got.Snapshot)
            }
            s.Wait()
            return
        case <-ctx.Done():
            t.Fatalf("timed out waiting for the computer")
        }
    }
}

func TestHumanAsOGetsOpeningMove(t *testing.T) {
    s := NewServiceWithOptions(Options{HumanMark: domain.O, Seed: 1})
    gs, _ := s.CreateGame()
    st, err := s.Start(gs.ID, session.HumanVsAI, ai.Medium)
    if err != nil {
        t.Fatalf("Start: %v", err)
    }
    if st.Snapshot.Board[4] != domain.X || st.Snapshot.Active != domain.O {
        t.Fatalf("expected medium AI to open in the center, got %+v", st.Snapshot)
    }
}

func TestSubscribeAndBroadcast(t *testing.T) {
    s := NewService()
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.TwoHuman, 0)

    ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
    defer cancel()
    ch, unsub, _ := s.Subscribe(ctx, gs.ID)
    defer unsub()

    if _, err := s.Play(gs.ID, 0); err != nil {
        t.Fatalf("play failed: %v", err)
    }

    select {
    case st, ok := <-ch:
        if !ok {
            t.Fatalf("channel closed unexpectedly")
        }
        if st.Snapshot.Moves != 1 || st.Snapshot.Board[0] != domain.X {
            t.Fatalf("unexpected broadcast: %+v", st.Snapshot)
        }
    case <-ctx.Done():
        t.Fatalf("timed out waiting for broadcast")
    }
}

func TestDropSlowSubscriber(t *testing.T) {
    s := NewService()
    gs, _ := s.CreateGame()
    mustStart(t, s, gs.ID, session.TwoHuman, 0)

    // Slow subscriber: never read
    ctxSlow, cancelSlow := context.WithCancel(context.Background())
    defer cancelSlow()
    slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

    ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
    defer cancelFast()
    fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
    defer unsubFast()

    moves := []domain.Position{0, 3, 1, 4, 8, 7}
    for i, p := range moves {
        if _, err := s.Play(gs.ID, p); err != nil {
            t.Fatalf("play %d: %v", i, err)
        }
        select {
        case <-fastCh:
        case <-ctxFast.Done():
            t.Fatalf("fast subscriber did not receive update %d", i)
        }
    }

    // The slow channel holds its buffer and is then closed.
    n := 0
    for range slowCh {
        n++
    }
    if n == 0 || n >= len(moves) {
        t.Fatalf("expected slow subscriber to be cut off part way, got %d updates", n)
    }
}
