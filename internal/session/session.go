package session

import (
    "errors"
    "fmt"
    "math/rand"
    "strings"

    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
)

// Mode is who plays against whom.
type Mode uint8

const (
    NoMode Mode = iota
    TwoHuman
    HumanVsAI
)

func (m Mode) String() string {
    switch m {
    case TwoHuman:
        return "pvp"
    case HumanVsAI:
        return "ai"
    default:
        return ""
    }
}

// ParseMode accepts the names used by both front ends and the menu numbers.
func ParseMode(s string) (Mode, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "pvp", "two", "two_player", "1":
        return TwoHuman, nil
    case "ai", "vs_ai", "2":
        return HumanVsAI, nil
    }
    return NoMode, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// State is the session's position in the match lifecycle.
type State uint8

const (
    ModeSelect State = iota
    DifficultySelect
    Playing
    Terminal
)

func (s State) String() string {
    switch s {
    case DifficultySelect:
        return "difficulty_select"
    case Playing:
        return "playing"
    case Terminal:
        return "terminal"
    default:
        return "mode_select"
    }
}

// Errors returned by session operations.
var (
    ErrInvalidMode = errors.New("invalid mode")
    ErrWrongState  = errors.New("action not allowed now")
    ErrNotPlaying  = fmt.Errorf("%w: no game in progress", domain.ErrInvalidMove)
    ErrNotYourTurn = fmt.Errorf("%w: not your turn", domain.ErrInvalidMove)
    ErrNotAITurn   = fmt.Errorf("%w: not the computer's turn", domain.ErrInvalidMove)
)

// Snapshot is everything a front end needs to draw the session.
type Snapshot struct {
    Board      domain.Board
    Active     domain.Cell
    State      State
    Mode       Mode
    Difficulty ai.Difficulty
    HumanMark  domain.Cell
    Outcome    domain.Outcome
    Winner     domain.Cell
    Line       domain.Line
    HasLine    bool
    LastMove   domain.Position
    Moves      int
    AIPending  bool
}

// AIMark returns the computer's mark, or Empty outside HumanVsAI.
func (s Snapshot) AIMark() domain.Cell {
    if s.Mode != HumanVsAI {
        return domain.Empty
    }
    return s.HumanMark.Opponent()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
    return func(s *Session) {
        if l != nil {
            s.log = l
        }
    }
}

// WithRand sets the randomness source for the Easy and Medium strategies.
func WithRand(rng *rand.Rand) Option {
    return func(s *Session) { s.rng = rng }
}

// WithHumanMark lets the human play O; the computer then opens as X.
func WithHumanMark(m domain.Cell) Option {
    return func(s *Session) {
        if m.IsMark() {
            s.human = m
        }
    }
}

// WithDeferredAI stops the session from answering human moves on its own.
// Snapshot.AIPending is set instead and the caller triggers PlayAI when ready.
func WithDeferredAI() Option {
    return func(s *Session) { s.deferAI = true }
}

// Session orchestrates one match between two humans or a human and the
// computer. It is not safe for concurrent use.
type Session struct {
    game       domain.Game
    state      State
    mode       Mode
    difficulty ai.Difficulty
    strategy   ai.Strategy
    human      domain.Cell
    deferAI    bool
    rng        *rand.Rand
    log        *zap.Logger
    listeners  []func(Snapshot)
}

// New returns a session waiting for a mode.
func New(opts ...Option) *Session {
    s := &Session{
        game:  domain.New(),
        human: domain.X,
        log:   zap.NewNop(),
    }
    for _, o := range opts {
        o(s)
    }
    return s
}

// Subscribe registers fn to receive a snapshot after every state change.
func (s *Session) Subscribe(fn func(Snapshot)) {
    s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
    snap := Snapshot{
        Board:      s.game.Board,
        Active:     s.game.Turn,
        State:      s.state,
        Mode:       s.mode,
        Difficulty: s.difficulty,
        HumanMark:  s.human,
        Outcome:    s.game.Outcome,
        Winner:     s.game.Winner,
        LastMove:   s.game.LastMove,
        Moves:      s.game.Moves,
        AIPending:  s.aiToMove(),
    }
    if s.game.Outcome == domain.Win {
        snap.Line = s.game.Line
        snap.HasLine = true
    }
    return snap
}

// Start binds a mode and, for HumanVsAI, a difficulty in one call. It works
// from any state; rejected input leaves the session untouched.
func (s *Session) Start(mode Mode, d ai.Difficulty) (Snapshot, error) {
    var strat ai.Strategy
    switch mode {
    case TwoHuman:
        d = 0
    case HumanVsAI:
        var err error
        if strat, err = ai.New(d, s.rng); err != nil {
            return s.Snapshot(), err
        }
    default:
        return s.Snapshot(), fmt.Errorf("%w: %d", ErrInvalidMode, mode)
    }
    s.mode = mode
    s.difficulty = d
    s.strategy = strat
    s.log.Debug("session started", zap.Stringer("mode", mode), zap.Stringer("difficulty", d))
    s.begin()
    return s.emit(), nil
}

// SelectMode binds the game mode. TwoHuman starts playing straight away.
func (s *Session) SelectMode(mode Mode) (Snapshot, error) {
    if s.state != ModeSelect {
        return s.Snapshot(), fmt.Errorf("%w: select mode while %s", ErrWrongState, s.state)
    }
    switch mode {
    case TwoHuman:
        s.mode = TwoHuman
        s.difficulty = 0
        s.strategy = nil
        s.begin()
    case HumanVsAI:
        s.mode = HumanVsAI
        s.state = DifficultySelect
    default:
        return s.Snapshot(), fmt.Errorf("%w: %d", ErrInvalidMode, mode)
    }
    s.log.Debug("mode selected", zap.Stringer("mode", mode))
    return s.emit(), nil
}

// SelectDifficulty binds the computer's strategy and starts playing.
func (s *Session) SelectDifficulty(d ai.Difficulty) (Snapshot, error) {
    if s.state != DifficultySelect {
        return s.Snapshot(), fmt.Errorf("%w: select difficulty while %s", ErrWrongState, s.state)
    }
    strat, err := ai.New(d, s.rng)
    if err != nil {
        return s.Snapshot(), err
    }
    s.difficulty = d
    s.strategy = strat
    s.log.Debug("difficulty selected", zap.Stringer("difficulty", d))
    s.begin()
    return s.emit(), nil
}

// HumanMove plays the active mark at p on behalf of a human.
func (s *Session) HumanMove(p domain.Position) (Snapshot, error) {
    if s.state != Playing {
        return s.Snapshot(), ErrNotPlaying
    }
    if s.aiToMove() {
        return s.Snapshot(), ErrNotYourTurn
    }
    if err := s.game.Play(p); err != nil {
        return s.Snapshot(), err
    }
    s.log.Debug("human move", zap.Int("pos", int(p)), zap.Stringer("mark", s.game.Board[p]))
    s.afterMove()
    if !s.deferAI && s.aiToMove() {
        s.playAI()
    }
    return s.emit(), nil
}

// PlayAI lets the bound strategy move. Only needed with WithDeferredAI.
func (s *Session) PlayAI() (Snapshot, error) {
    if s.state != Playing {
        return s.Snapshot(), ErrNotPlaying
    }
    if !s.aiToMove() {
        return s.Snapshot(), ErrNotAITurn
    }
    s.playAI()
    return s.emit(), nil
}

// Reset clears the board and hands the move to X, keeping mode and difficulty.
func (s *Session) Reset() Snapshot {
    switch {
    case s.mode == NoMode:
        s.game.Reset()
        s.state = ModeSelect
    case s.mode == HumanVsAI && s.strategy == nil:
        s.game.Reset()
        s.state = DifficultySelect
    default:
        s.begin()
    }
    return s.emit()
}

// ChangeMode abandons the match and waits for a new mode.
func (s *Session) ChangeMode() Snapshot {
    s.game.Reset()
    s.state = ModeSelect
    s.mode = NoMode
    s.difficulty = 0
    s.strategy = nil
    return s.emit()
}

func (s *Session) begin() {
    s.game.Reset()
    s.state = Playing
    if !s.deferAI && s.aiToMove() {
        s.playAI()
    }
}

func (s *Session) aiToMove() bool {
    return s.state == Playing && s.strategy != nil && s.game.Turn != s.human
}

func (s *Session) playAI() {
    aiMark := s.game.Turn
    b := s.game.Board
    p, ok := s.strategy.Choose(&b, aiMark, aiMark.Opponent())
    if !ok {
        return
    }
    if err := s.game.Play(p); err != nil {
        // strategies only return empty cells
        s.log.Error("ai produced illegal move", zap.Int("pos", int(p)), zap.Error(err))
        return
    }
    s.log.Debug("ai move", zap.String("strategy", s.strategy.Name()), zap.Int("pos", int(p)))
    s.afterMove()
}

func (s *Session) afterMove() {
    if s.game.Over() {
        s.state = Terminal
        s.log.Info("game over",
            zap.Stringer("outcome", s.game.Outcome),
            zap.Stringer("winner", s.game.Winner),
            zap.Int("moves", s.game.Moves))
    }
}

func (s *Session) emit() Snapshot {
    snap := s.Snapshot()
    for _, fn := range s.listeners {
        fn(snap)
    }
    return snap
}
