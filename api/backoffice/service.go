// Package backoffice runs the order-operations HTTP service.
package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"OrderOps/internal/archive"
	"OrderOps/internal/config"
	"OrderOps/internal/ingest"
	"OrderOps/internal/logger"
	"OrderOps/internal/mallorder"
	"OrderOps/internal/serviceiface"
	"OrderOps/internal/store"

	"go.uber.org/zap"
)

type BackofficeService struct {
	config map[string]interface{}
	store  store.Store

	mu     sync.Mutex
	server *http.Server
	done   chan struct{}
}

func NewBackofficeService(cfg map[string]interface{}, st store.Store) serviceiface.Service {
	return &BackofficeService{config: cfg, store: st}
}

func (s *BackofficeService) Name() string {
	return "backoffice"
}

// Build wires the importer and mall service from the service config:
// synonyms_path extends the built-in synonym tables and time_zone stamps
// export file names. Import files are archived to S3 when ARCHIVE_BUCKET is
// set.
func (s *BackofficeService) Build() (Handlers, error) {
	path, _ := s.config["synonyms_path"].(string)
	dicts, err := ingest.LoadDictionaries(path)
	if err != nil {
		return Handlers{}, err
	}
	tz, _ := s.config["time_zone"].(string)
	if tz == "" {
		tz = config.DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Handlers{}, fmt.Errorf("time_zone %q: %w", tz, err)
	}
	log := zap.L().Named("backoffice")
	svc, err := mallorder.NewService(s.store, dicts, loc, log)
	if err != nil {
		return Handlers{}, err
	}
	h := Handlers{
		Store:    s.store,
		Importer: ingest.NewImporter(dicts, s.store, log),
		Mall:     svc,
	}
	if bucket := config.ArchiveBucket(); bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ar, err := archive.NewS3(ctx, bucket, config.ArchiveRegion(), config.ArchivePrefix())
		if err != nil {
			return Handlers{}, err
		}
		h.Archive = ar
	}
	return h, nil
}

func (s *BackofficeService) port() int {
	switch p := s.config["port"].(type) {
	case int:
		return p
	case float64:
		return int(p)
	}
	return config.DefaultHTTPPort
}

func (s *BackofficeService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.Build()
	if err != nil {
		return err
	}
	addr := fmt.Sprintf(":%d", s.port())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})
	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("backoffice server failed", zap.Error(err))
		}
	}(s.server, s.done)
	logger.Audit("Backoffice service started on %s", addr)
	return nil
}

func (s *BackofficeService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	<-s.done
	s.server = nil
	return err
}
