package web

import (
    "context"
    "fmt"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "github.com/mitchellh/mapstructure"
    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/app"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/session"
)

// wsMessage is the envelope for both directions.
type wsMessage struct {
    Type     string                 `json:"type"`
    Contents map[string]interface{} `json:"contents,omitempty"`
}

type modeContents struct {
    Mode       string `mapstructure:"mode"`
    Difficulty string `mapstructure:"difficulty"`
}

type playContents struct {
    Position *int `mapstructure:"position"`
    Row      *int `mapstructure:"row"`
    Col      *int `mapstructure:"col"`
}

const writeWait = 5 * time.Second

// toContents turns a view struct into the generic contents map.
func toContents(v interface{}) map[string]interface{} {
    var out map[string]interface{}
    _ = mapstructure.Decode(v, &out)
    return out
}

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    conn, err := h.upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.log.Warn("websocket upgrade failed", zap.String("id", id), zap.Error(err))
        return
    }
    defer conn.Close()

    ctx, cancel := context.WithCancel(r.Context())
    defer cancel()
    updates, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        return
    }
    defer unsub()

    // Replies from the read loop go through here so that only this
    // goroutine writes to the connection.
    replies := make(chan wsMessage, 8)
    go func() {
        defer cancel()
        for {
            var msg wsMessage
            if err := conn.ReadJSON(&msg); err != nil {
                if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
                    h.log.Debug("websocket read", zap.String("id", id), zap.Error(err))
                }
                return
            }
            if err := h.handleCommand(id, msg); err != nil {
                code, reason := errorInfo(err)
                select {
                case replies <- wsMessage{Type: "error", Contents: toContents(errorView{Code: code, Reason: reason})}:
                case <-ctx.Done():
                    return
                }
            }
        }
    }()

    send := func(msg wsMessage) error {
        _ = conn.SetWriteDeadline(time.Now().Add(writeWait))
        return conn.WriteJSON(msg)
    }
    if err := send(stateMessage(*gs)); err != nil {
        return
    }
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            _ = conn.WriteControl(websocket.CloseMessage,
                websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
            return
        case <-ticker.C:
            if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
                return
            }
        case msg := <-replies:
            if err := send(msg); err != nil {
                return
            }
        case st, ok := <-updates:
            if !ok {
                return
            }
            if err := send(stateMessage(st)); err != nil {
                return
            }
        }
    }
}

func stateMessage(gs app.GameState) wsMessage {
    return wsMessage{Type: "state", Contents: toContents(newStateView(gs))}
}

// handleCommand applies one client command. Successful changes reach the
// client through the subscription.
func (h *handlers) handleCommand(id string, msg wsMessage) error {
    var err error
    switch msg.Type {
    case "mode", "start":
        var c modeContents
        if err := mapstructure.Decode(msg.Contents, &c); err != nil {
            return fmt.Errorf("%w: %v", errBadRequest, err)
        }
        mode, err := session.ParseMode(c.Mode)
        if err != nil {
            return err
        }
        if msg.Type == "mode" {
            _, err = h.svc.SelectMode(id, mode)
            return err
        }
        var d ai.Difficulty
        if mode == session.HumanVsAI {
            if d, err = ai.ParseDifficulty(c.Difficulty); err != nil {
                return err
            }
        }
        _, err = h.svc.Start(id, mode, d)
        return err
    case "difficulty":
        var c modeContents
        if err := mapstructure.Decode(msg.Contents, &c); err != nil {
            return fmt.Errorf("%w: %v", errBadRequest, err)
        }
        d, err := ai.ParseDifficulty(c.Difficulty)
        if err != nil {
            return err
        }
        _, err = h.svc.SelectDifficulty(id, d)
        return err
    case "play":
        var c playContents
        if err := mapstructure.Decode(msg.Contents, &c); err != nil {
            return fmt.Errorf("%w: %v", errBadRequest, err)
        }
        p, err := c.position()
        if err != nil {
            return err
        }
        _, err = h.svc.Play(id, p)
        return err
    case "reset":
        _, err = h.svc.Reset(id)
    case "change_mode":
        _, err = h.svc.ChangeMode(id)
    default:
        err = fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
    }
    return err
}

func (c playContents) position() (domain.Position, error) {
    switch {
    case c.Position != nil:
        return domain.Position(*c.Position), nil
    case c.Row != nil && c.Col != nil:
        return domain.PositionAt(*c.Row, *c.Col)
    }
    return 0, fmt.Errorf("%w: play needs position or row and col", errBadRequest)
}
