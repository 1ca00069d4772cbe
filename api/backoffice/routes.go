package backoffice

import (
	"context"
	"net/http"
	"time"

	"OrderOps/api"
	"OrderOps/api/importer"
	"OrderOps/api/mall"
	"OrderOps/internal/ingest"
	"OrderOps/internal/mallorder"
	"OrderOps/internal/metrics"
	"OrderOps/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers bundles what the routes serve.
type Handlers struct {
	Store    store.Store
	Importer *ingest.Importer
	Mall     *mallorder.Service
	Archive  importer.Archiver
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLog)

	router.HandleFunc("/health", HealthHandler(h.Store)).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	router.HandleFunc("/import/manufacturers", importer.ImportManufacturers(h.Importer, h.Archive)).Methods("POST")
	router.HandleFunc("/import/products", importer.ImportProducts(h.Importer, h.Archive)).Methods("POST")
	router.HandleFunc("/manufacturers", importer.ListManufacturers(h.Store)).Methods("GET")
	router.HandleFunc("/products", importer.ListProducts(h.Store)).Methods("GET")

	router.HandleFunc("/mall/uploads", mall.UploadOrders(h.Mall)).Methods("POST")
	router.HandleFunc("/mall/uploads", mall.ListUploads(h.Mall)).Methods("GET")
	router.HandleFunc("/mall/uploads/{id:[0-9]+}/lines", mall.UploadLines(h.Mall)).Methods("GET")
	router.HandleFunc("/mall/analyze", mall.Analyze(h.Mall)).Methods("POST")
	router.HandleFunc("/mall/export", mall.Export(h.Mall)).Methods("POST")
	router.HandleFunc("/mall/templates", mall.ListTemplates(h.Mall)).Methods("GET")
	router.HandleFunc("/mall/templates/{mallId}", mall.GetTemplate(h.Mall)).Methods("GET")
	router.HandleFunc("/mall/templates/{mallId}", mall.PutTemplate(h.Mall)).Methods("PUT")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return router
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store answers.
func HealthHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := st.(pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				api.RespondWithError(w, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := r.RemoteAddr
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP = xff
		}
		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("client", clientIP),
			zap.Int("status", rw.statusCode),
			zap.Duration("elapsed", time.Since(start)),
		}
		if rw.statusCode >= 500 {
			zap.L().Error("request", fields...)
			return
		}
		zap.L().Info("request", fields...)
	})
}
