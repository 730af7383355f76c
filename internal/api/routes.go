// Package api provides HTTP handlers for the spectrum server.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/popgen-tools/sfs/internal/cache"
	"github.com/popgen-tools/sfs/internal/service"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service     *service.SpectrumService
	Cache       *cache.Manager
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/spectrum", summaryHandler(cfg.Service))
		r.Get("/spectrum/cells", cellsHandler(cfg.Service, cfg.Cache))
		r.Get("/spectrum/marginal", marginalHandler(cfg.Service))
		r.Get("/stats", statsHandler(cfg.Service, cfg.Cache))
		r.Get("/cache/stats", cacheStatsHandler(cfg.Service))
	})

	r.Get("/heatmap.png", heatmapHandler(cfg.Service))

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeCachedJSON serves pre-encoded JSON from the response cache, encoding
// and storing it on the first request.
func writeCachedJSON(w http.ResponseWriter, m *cache.Manager, key string, build func() interface{}) {
	if m != nil {
		if data, ok := m.GetResponse(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
			return
		}
	}

	data, err := json.Marshal(build())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if m != nil {
		m.SetResponse(key, data)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func summaryHandler(svc *service.SpectrumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Summary())
	}
}

func cellsHandler(svc *service.SpectrumService, m *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeCachedJSON(w, m, "response:cells", func() interface{} {
			return svc.Cells()
		})
	}
}

func statsHandler(svc *service.SpectrumService, m *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeCachedJSON(w, m, "response:stats", func() interface{} {
			return map[string]interface{}{
				"name":       svc.Name(),
				"statistics": svc.Statistics(),
			}
		})
	}
}

func marginalHandler(svc *service.SpectrumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axes, err := parseCSVInts(r.URL.Query().Get("axes"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(axes) == 0 {
			http.Error(w, "missing required query param: axes", http.StatusBadRequest)
			return
		}

		cells, err := svc.Marginal(axes)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, cells)
	}
}

func heatmapHandler(svc *service.SpectrumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		colormapName := r.URL.Query().Get("colormap")
		folded := r.URL.Query().Get("folded") == "true"

		data, err := svc.Heatmap(colormapName, folded)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(data)
	}
}

func cacheStatsHandler(svc *service.SpectrumService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := svc.CacheStats()
		if stats == nil {
			http.Error(w, "caching disabled", http.StatusNotFound)
			return
		}
		writeJSON(w, stats)
	}
}

func parseCSVInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
