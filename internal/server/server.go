// Package server exposes the dashboard to browsers over HTTP and WebSocket.
package server

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/dashboard"
	"github.com/sells-group/buffer-dashboard/internal/export"
)

//go:embed static
var staticFiles embed.FS

// Server routes dashboard requests.
type Server struct {
	dash   *dashboard.Dashboard
	router *chi.Mux
	ws     WebSocketConfig
	log    *zap.Logger
}

// New builds the router over a dashboard.
func New(dash *dashboard.Dashboard, cfg config.ServerConfig) *Server {
	s := &Server{
		dash:   dash,
		router: chi.NewRouter(),
		ws:     DefaultWebSocketConfig(),
		log:    zap.L().With(zap.String("component", "server")),
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	origins := cfg.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/config", s.handleConfig)
		r.Route("/sections/{section}", func(r chi.Router) {
			r.Get("/", s.handleSection)
			r.Get("/chart.png", s.handleChart)
			r.Get("/export.fgb", s.handleExport(export.FlatGeobuf))
			r.Get("/export.xlsx", s.handleExport(export.XLSX))
		})
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		s.log.Error("read embedded index", zap.Error(err))
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
