package api

import (
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peerpractice/server/internal/api/recovery"
	"github.com/peerpractice/server/internal/api/respond"
)

// NewRouter wires all HTTP routes.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()

	router.Use(recovery.Middleware(deps.Log))
	router.Use(corsMiddleware(deps.Config.CORSAllowedOrigins))

	login := newLoginHandler(deps)
	ws := newWSHandler(deps)

	router.HandleFunc("/v1/login", login.RequestPIN).Methods("POST", "OPTIONS")
	router.HandleFunc("/v1/pin", login.VerifyPIN).Methods("POST", "OPTIONS")
	router.HandleFunc("/v1/ws", ws.Handle).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil && !deps.Health.IsHealthy() {
			respond.WriteError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	if deps.Config.WebRoot != "" {
		router.PathPrefix("/").Handler(spaHandler{root: deps.Config.WebRoot})
	}

	return router
}

// corsMiddleware allows cross-origin requests from the configured origins.
func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// spaHandler serves the compiled frontend, falling back to index.html for
// any path that is not a real file so client-side routing keeps working.
type spaHandler struct {
	root string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.root, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}
