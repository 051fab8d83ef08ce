package web

import (
    "bytes"
    "html/template"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/app"
    "github.com/jaminalder/triki/internal/domain"
    "github.com/jaminalder/triki/internal/present"
    "github.com/jaminalder/triki/internal/session"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "iter": func(n int) []int { a := make([]int, n); for i := range a { a[i] = i }; return a },
        "cellSymbol": func(c domain.Cell) string { return c.String() },
        "cellClass": func(s session.Snapshot, p int) string {
            cls := "cell"
            c := s.Board[p]
            if c != domain.Empty {
                cls += " " + map[domain.Cell]string{domain.X: "x", domain.O: "o"}[c] + " disabled"
            }
            if s.HasLine && s.Line.Contains(domain.Position(p)) {
                cls += " winner"
            }
            return cls
        },
        "canPlay": func(s session.Snapshot, p int) bool {
            return s.State == session.Playing && !s.AIPending && s.Board[p] == domain.Empty
        },
        "modeName":   present.ModeName,
        "status":     present.Status,
        "difficulties": func() []ai.Difficulty { return []ai.Difficulty{ai.Easy, ai.Medium, ai.Hard} },
        "diffName":   present.DifficultyName,
        "diffHint":   present.DifficultyHint,
        "stateName":  func(s session.State) string { return s.String() },
        "add":        func(a, b int) int { return a + b },
        "mul":        func(a, b int) int { return a * b },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Triki</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.cell{width:4em;height:4em;font-size:1.5em}
.x{color:#e74c3c}.o{color:#3498db}.winner{background:#f1c40f}
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>🎮 Triki</h1>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board-slot" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

// boardData feeds the board template.
type boardData struct {
    ID    string
    S     session.Snapshot
    Error string
}

func newBoardData(gs app.GameState, errMsg string) boardData {
    return boardData{ID: gs.ID, S: gs.Snapshot, Error: errMsg}
}

const indexTemplate = `<h1>🎮 Triki</h1>
<form action="/game" method="post"><input type="hidden" name="mode" value="pvp"><button>Two players</button></form>
<h2>Vs computer</h2>
{{range $d := difficulties}}
<form action="/game" method="post">
  <input type="hidden" name="mode" value="ai">
  <input type="hidden" name="difficulty" value="{{$d}}">
  <button>{{diffName $d}} ({{diffHint $d}})</button>
</form>
{{end}}
<form action="/game" method="post"><button>New game</button></form>`

const boardTemplate = `
<div id="board" data-state="{{stateName .S.State}}">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{status .S}}</div>
  {{$id := .ID}}
  {{$s := .S}}
  {{if eq (stateName .S.State) "mode_select"}}
    <form hx-post="/game/{{$id}}/mode" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="mode" value="pvp"><button type="submit">Two players</button>
    </form>
    <form hx-post="/game/{{$id}}/mode" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="mode" value="ai"><button type="submit">Vs computer</button>
    </form>
  {{else if eq (stateName .S.State) "difficulty_select"}}
    {{range $d := difficulties}}
    <form hx-post="/game/{{$id}}/difficulty" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="difficulty" value="{{$d}}">
      <button type="submit">{{diffName $d}} ({{diffHint $d}})</button>
    </form>
    {{end}}
  {{else}}
  <div class="mode">{{modeName $s}}</div>
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      {{$p := add (mul $r 3) $c}}
      <form hx-post="/game/{{$id}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="pos" value="{{$p}}">
        <button type="submit" class="{{cellClass $s $p}}"{{if not (canPlay $s $p)}} disabled{{end}}>{{cellSymbol (index $s.Board $p)}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  <form hx-post="/game/{{$id}}/reset" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">Reset</button></form>
  <form hx-post="/game/{{$id}}/change-mode" hx-target="#board" hx-swap="outerHTML" method="post"><button type="submit">Change mode</button></form>
  {{end}}
</div>
`
