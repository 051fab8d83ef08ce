package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/gorilla/websocket"
    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/app"
)

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, log *zap.Logger) http.Handler {
    if log == nil {
        log = zap.NewNop()
    }
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(requestLogger(log))
    r.Use(middleware.Recoverer)

    h := &handlers{
        svc: s,
        tpl: loadTemplates(),
        log: log,
        // same-origin pages only; the board is served from this handler
        upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
    }
    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Get("/state", h.state)
        r.Post("/mode", h.action(h.selectMode))
        r.Post("/difficulty", h.action(h.selectDifficulty))
        r.Post("/play", h.action(h.play))
        r.Post("/reset", h.action(h.reset))
        r.Post("/change-mode", h.action(h.changeMode))
        r.Get("/events", h.events)
        r.Get("/ws", h.ws)
    })
    return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            log.Debug("request",
                zap.String("method", r.Method),
                zap.String("path", r.URL.Path),
                zap.Int("status", ww.Status()),
                zap.Duration("took", time.Since(start)),
                zap.String("request_id", middleware.GetReqID(r.Context())))
        })
    }
}
