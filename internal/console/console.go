// Package console runs Triki as a menu-driven terminal game.
package console

import (
    "bufio"
    "context"
    "fmt"
    "io"
    "strconv"
    "strings"
    "time"

    "github.com/muesli/termenv"
    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/present"
    "github.com/jaminalder/triki/internal/session"
)

// Console reads commands from in and draws the game on out.
type Console struct {
    in      *bufio.Scanner
    w       io.Writer
    out     *termenv.Output
    log     *zap.Logger
    delay   time.Duration
    sessOpt []session.Option
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger used by the console and its sessions.
func WithLogger(l *zap.Logger) Option {
    return func(c *Console) {
        if l != nil {
            c.log = l
        }
    }
}

// WithDelay sets how long the computer pretends to think.
func WithDelay(d time.Duration) Option {
    return func(c *Console) { c.delay = d }
}

// WithProfile forces a colour profile; tests use termenv.Ascii.
func WithProfile(p termenv.Profile) Option {
    return func(c *Console) { c.out = termenv.NewOutput(c.w, termenv.WithProfile(p)) }
}

// WithSessionOptions passes options through to every session.
func WithSessionOptions(opts ...session.Option) Option {
    return func(c *Console) { c.sessOpt = append(c.sessOpt, opts...) }
}

// New returns a console on the given streams.
func New(in io.Reader, out io.Writer, opts ...Option) *Console {
    c := &Console{
        in:    bufio.NewScanner(in),
        w:     out,
        out:   termenv.NewOutput(out),
        log:   zap.NewNop(),
        delay: 500 * time.Millisecond,
    }
    for _, o := range opts {
        o(c)
    }
    return c
}

// Run shows the main menu until the player exits, the input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
    for {
        c.menu()
        line, ok := c.readLine()
        if !ok {
            return c.in.Err()
        }
        if strings.TrimSpace(line) == "0" {
            c.printf("\nThanks for playing! 👋\n")
            return nil
        }
        mode, err := session.ParseMode(line)
        if err != nil {
            c.printf("Invalid option. Please choose 1, 2 or 0.\n")
            continue
        }

        sess := session.New(append([]session.Option{
            session.WithDeferredAI(),
            session.WithLogger(c.log),
        }, c.sessOpt...)...)
        if _, err := sess.SelectMode(mode); err != nil {
            return err
        }
        if mode == session.HumanVsAI {
            d, ok := c.chooseDifficulty()
            if !ok {
                return c.in.Err()
            }
            if _, err := sess.SelectDifficulty(d); err != nil {
                return err
            }
        }

        if ok, err := c.play(ctx, sess); !ok || err != nil {
            return err
        }
        c.printf("\nPlay again? (press Enter to continue)\n")
        if _, ok := c.readLine(); !ok {
            return c.in.Err()
        }
    }
}

func (c *Console) menu() {
    c.printf("\n%s\n", strings.Repeat("=", 50))
    c.printf("%s\n", c.out.String(center("🎮  TRIKI - TIC-TAC-TOE  🎮", 50)).Bold())
    c.printf("%s\n", strings.Repeat("=", 50))
    c.printf("\nChoose a game mode:\n")
    c.printf("1. Two players (human vs human)\n")
    c.printf("2. Player vs computer\n")
    c.printf("0. Exit\n")
    c.printf("\nOption: ")
}

func (c *Console) chooseDifficulty() (ai.Difficulty, bool) {
    for {
        c.printf("\nChoose the difficulty:\n")
        for _, d := range []ai.Difficulty{ai.Easy, ai.Medium, ai.Hard} {
            c.printf("%d. %s (%s)\n", int(d), present.DifficultyName(d), present.DifficultyHint(d))
        }
        c.printf("\nOption: ")
        line, ok := c.readLine()
        if !ok {
            return 0, false
        }
        d, err := ai.ParseDifficulty(line)
        if err == nil {
            return d, true
        }
        c.printf("Invalid option. Please choose 1, 2 or 3.\n")
    }
}

// play runs one match. It reports false when input ran out or ctx ended.
func (c *Console) play(ctx context.Context, sess *session.Session) (bool, error) {
    snap := sess.Snapshot()
    c.printf("\nWelcome to Triki (Tic-Tac-Toe)!\n")
    c.printf("Mode: %s\n", present.ModeName(snap))
    for snap.State == session.Playing {
        c.drawBoard(snap)
        var err error
        if snap.AIPending {
            snap, err = c.aiTurn(ctx, sess)
            if err != nil {
                return false, err
            }
            continue
        }
        c.printf("Player %s, enter your move (row column, e.g. 0 1): ", c.mark(snap.Active))
        line, ok := c.readLine()
        if !ok {
            return false, c.in.Err()
        }
        p, err := parseMove(line)
        if err == nil {
            snap, err = sess.HumanMove(p)
        }
        if err != nil {
            c.log.Debug("move rejected", zap.String("input", line), zap.Error(err))
            c.printf("Invalid move. Enter two numbers between 0 and 2 for an empty cell.\n")
        }
    }
    c.drawBoard(snap)
    c.printf("%s\n", c.out.String(present.Result(snap)).Bold())
    return true, nil
}

func (c *Console) aiTurn(ctx context.Context, sess *session.Session) (session.Snapshot, error) {
    c.printf("%s\n", present.Thinking)
    if c.delay > 0 {
        t := time.NewTimer(c.delay)
        select {
        case <-ctx.Done():
            t.Stop()
            return sess.Snapshot(), ctx.Err()
        case <-t.C:
        }
    }
    snap, err := sess.PlayAI()
    if err != nil {
        return snap, err
    }
    c.printf("Computer played: %d %d\n", snap.LastMove.Row(), snap.LastMove.Col())
    return snap, nil
}

func (c *Console) drawBoard(s session.Snapshot) {
    c.printf("\n")
    for r := 0; r < 3; r++ {
        cells := make([]string, 3)
        for col := 0; col < 3; col++ {
            p := domain.Position(r*3 + col)
            cell := " "
            if s.Board[p] != domain.Empty {
                cell = c.mark(s.Board[p])
            }
            if s.HasLine && s.Line.Contains(p) {
                cell = c.out.String(s.Board[p].String()).Reverse().String()
            }
            cells[col] = cell
        }
        c.printf(" %s\n", strings.Join(cells, " | "))
        if r < 2 {
            c.printf("---+---+---\n")
        }
    }
    c.printf("\n")
}

func (c *Console) mark(m domain.Cell) string {
    color := "1"
    if m == domain.O {
        color = "4"
    }
    return c.out.String(m.String()).Foreground(c.out.Color(color)).Bold().String()
}

func (c *Console) readLine() (string, bool) {
    if !c.in.Scan() {
        return "", false
    }
    return c.in.Text(), true
}

func (c *Console) printf(format string, a ...interface{}) {
    _, _ = fmt.Fprintf(c.out, format, a...)
}

// parseMove reads "row col"; commas are accepted as separators too.
func parseMove(line string) (domain.Position, error) {
    fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
    if len(fields) != 2 {
        return 0, fmt.Errorf("%w: want row and column, got %q", domain.ErrInvalidMove, line)
    }
    r, err1 := strconv.Atoi(fields[0])
    col, err2 := strconv.Atoi(fields[1])
    if err1 != nil || err2 != nil {
        return 0, fmt.Errorf("%w: not a number in %q", domain.ErrInvalidMove, line)
    }
    return domain.PositionAt(r, col)
}

func center(s string, width int) string {
    n := len([]rune(s))
    if n >= width {
        return s
    }
    left := (width - n) / 2
    return strings.Repeat(" ", left) + s
}
