package web

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/app"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/session"
)

type handlers struct {
    svc      *app.Service
    tpl      *templates
    log      *zap.Logger
    upgrader websocket.Upgrader
}

var errBadRequest = errors.New("bad request")

// errorInfo maps an engine or service error to a stable code and user text.
func errorInfo(err error) (code, msg string) {
    switch {
    case errors.Is(err, app.ErrNotFound):
        return "not_found", "Game not found"
    case errors.Is(err, session.ErrNotYourTurn), errors.Is(err, session.ErrNotAITurn):
        return "not_your_turn", "Not your turn"
    case errors.Is(err, session.ErrNotPlaying), errors.Is(err, domain.ErrGameOver):
        return "not_playing", "No game in progress"
    case errors.Is(err, domain.ErrOccupied):
        return "occupied", "Cell is occupied"
    case errors.Is(err, domain.ErrOutOfBounds):
        return "out_of_bounds", "Out of bounds"
    case errors.Is(err, domain.ErrInvalidMove):
        return "invalid_move", "Invalid move"
    case errors.Is(err, session.ErrInvalidMode):
        return "invalid_mode", "Unknown game mode"
    case errors.Is(err, ai.ErrInvalidDifficulty):
        return "invalid_difficulty", "Unknown difficulty"
    case errors.Is(err, session.ErrWrongState):
        return "wrong_state", "That is not possible right now"
    case errors.Is(err, errBadRequest):
        return "bad_request", "Bad request"
    }
    return "internal", "Something went wrong"
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardData(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

// create makes a session and binds mode and difficulty when the form has them.
func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    var (
        mode session.Mode
        diff ai.Difficulty
        err  error
    )
    if v := r.Form.Get("mode"); v != "" {
        if mode, err = session.ParseMode(v); err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
    }
    if mode == session.HumanVsAI && r.Form.Get("difficulty") != "" {
        if diff, err = ai.ParseDifficulty(r.Form.Get("difficulty")); err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
    }

    gs, err := h.svc.CreateGame()
    if err != nil {
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    switch {
    case mode == session.TwoHuman || diff != 0:
        _, err = h.svc.Start(gs.ID, mode, diff)
    case mode == session.HumanVsAI:
        _, err = h.svc.SelectMode(gs.ID, mode)
    }
    if err != nil {
        h.log.Warn("create: bind mode", zap.String("id", gs.ID), zap.Error(err))
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, "", newBoardData(*gs, "")))
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        writeJSONError(w, http.StatusNotFound, app.ErrNotFound)
        return
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(newStateView(*gs))
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
    code, msg := errorInfo(err)
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(errorView{Code: code, Reason: msg})
}

// action wraps a form-driven service call and answers with the board fragment.
func (h *handlers) action(fn func(id string, r *http.Request) (*app.GameState, error)) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        id := chi.URLParam(r, "id")
        _ = r.ParseForm()
        gs, err := fn(id, r)
        var errMsg string
        if err != nil {
            if errors.Is(err, app.ErrNotFound) {
                http.NotFound(w, r)
                return
            }
            _, errMsg = errorInfo(err)
            h.log.Debug("action rejected", zap.String("id", id), zap.String("path", r.URL.Path), zap.Error(err))
        }
        if gs == nil {
            if g, ok := h.svc.Get(id); ok {
                gs = g
            }
        }
        if gs == nil {
            http.NotFound(w, r)
            return
        }
        w.Header().Set("Content-Type", "text/html; charset=utf-8")
        _, _ = w.Write(h.renderBoard(*gs, errMsg))
    }
}

func (h *handlers) selectMode(id string, r *http.Request) (*app.GameState, error) {
    mode, err := session.ParseMode(r.Form.Get("mode"))
    if err != nil {
        return nil, err
    }
    return h.svc.SelectMode(id, mode)
}

func (h *handlers) selectDifficulty(id string, r *http.Request) (*app.GameState, error) {
    d, err := ai.ParseDifficulty(r.Form.Get("difficulty"))
    if err != nil {
        return nil, err
    }
    return h.svc.SelectDifficulty(id, d)
}

func (h *handlers) play(id string, r *http.Request) (*app.GameState, error) {
    p, err := parsePosition(r.Form.Get("pos"), r.Form.Get("r"), r.Form.Get("c"))
    if err != nil {
        return nil, err
    }
    return h.svc.Play(id, p)
}

func (h *handlers) reset(id string, _ *http.Request) (*app.GameState, error) {
    return h.svc.Reset(id)
}

func (h *handlers) changeMode(id string, _ *http.Request) (*app.GameState, error) {
    return h.svc.ChangeMode(id)
}

// parsePosition accepts either an index or a row/column pair.
func parsePosition(pos, row, col string) (domain.Position, error) {
    if pos != "" {
        n, err := strconv.Atoi(strings.TrimSpace(pos))
        if err != nil {
            return 0, fmt.Errorf("%w: position %q", errBadRequest, pos)
        }
        return domain.Position(n), nil
    }
    ri, err1 := strconv.Atoi(strings.TrimSpace(row))
    ci, err2 := strconv.Atoi(strings.TrimSpace(col))
    if err1 != nil || err2 != nil {
        return 0, fmt.Errorf("%w: row %q col %q", errBadRequest, row, col)
    }
    return domain.PositionAt(ri, ci)
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    defer unsub()
    // heartbeat ticker
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    // Initial flush of headers
    w.WriteHeader(http.StatusOK)
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case gs, ok := <-ch:
            if !ok {
                return
            }
            writeSSE(w, "board", h.renderBoard(gs, ""))
            flusher.Flush()
        }
    }
}

// writeSSE emits one event; every payload line gets its own data field.
func writeSSE(w io.Writer, event string, payload []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    for _, line := range strings.Split(strings.TrimRight(string(payload), "\n"), "\n") {
        _, _ = fmt.Fprintf(w, "data: %s\n", line)
    }
    _, _ = io.WriteString(w, "\n")
}
