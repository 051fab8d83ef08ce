package web

import (
    "github.com/jaminalder/triki/internal/app"
    "github.com/jaminalder/triki/internal/present"
)

// stateView is the JSON form of a session snapshot. The mapstructure tags
// keep the websocket contents map keyed the same way.
type stateView struct {
    ID         string    `json:"id" mapstructure:"id"`
    Board      [9]string `json:"board" mapstructure:"board"`
    Active     string    `json:"active" mapstructure:"active"`
    State      string    `json:"state" mapstructure:"state"`
    Mode       string    `json:"mode,omitempty" mapstructure:"mode"`
    Difficulty string    `json:"difficulty,omitempty" mapstructure:"difficulty"`
    HumanMark  string    `json:"human_mark" mapstructure:"human_mark"`
    Outcome    string    `json:"outcome" mapstructure:"outcome"`
    Winner     string    `json:"winner,omitempty" mapstructure:"winner"`
    Line       []int     `json:"line,omitempty" mapstructure:"line"`
    LastMove   int       `json:"last_move" mapstructure:"last_move"`
    AIPending  bool      `json:"ai_pending" mapstructure:"ai_pending"`
    Status     string    `json:"status" mapstructure:"status"`
}

type errorView struct {
    Code   string `json:"code" mapstructure:"code"`
    Reason string `json:"reason" mapstructure:"reason"`
}

func newStateView(gs app.GameState) stateView {
    s := gs.Snapshot
    v := stateView{
        ID:         gs.ID,
        Active:     s.Active.String(),
        State:      s.State.String(),
        Mode:       s.Mode.String(),
        Difficulty: s.Difficulty.String(),
        HumanMark:  s.HumanMark.String(),
        Outcome:    s.Outcome.String(),
        Winner:     s.Winner.String(),
        LastMove:   int(s.LastMove),
        AIPending:  s.AIPending,
        Status:     present.Status(s),
    }
    for i, c := range s.Board {
        v.Board[i] = c.String()
    }
    if s.HasLine {
        v.Line = []int{int(s.Line[0]), int(s.Line[1]), int(s.Line[2])}
    }
    return v
}
