package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PhucNguyen204/sigma2padas/internal/batch"
	"github.com/PhucNguyen204/sigma2padas/internal/logger"
	"github.com/PhucNguyen204/sigma2padas/internal/metrics"
	"github.com/PhucNguyen204/sigma2padas/internal/output"
	"github.com/PhucNguyen204/sigma2padas/internal/store"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

const maxBodyBytes = 10 << 20

var errBodyTooLarge = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)

type Deps struct {
	Log       *logger.Logger
	Converter *batch.Converter
	// Store is optional; without it /api/v1/rules answers 404 and ?store=true is ignored.
	Store *store.Store
}

type AppServer struct {
	deps Deps
}

func NewAppServer(deps Deps) *AppServer {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &AppServer{deps: deps}
}

// Router wires HTTP handlers.
func (s *AppServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/v1/convert", s.handleConvert)
	r.Get("/api/v1/rules", s.handleListRules)
	r.Handle("/metrics", metrics.Handler())
	return s.deps.Log.HTTPLogger(r)
}

// Run serves until ctx is cancelled.
func (s *AppServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	s.deps.Log.Info().Str("addr", addr).Msg("sigma2padas API listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ---- Handlers ----

func (s *AppServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleConvert accepts a (multi-document) Sigma YAML body, optionally gzip
// encoded, and replies with the PADAS rules as a JSON array.
func (s *AppServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.Is(err, errBodyTooLarge) || errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		writeErr(w, code, err)
		return
	}

	rules, err := sigma.LoadRulesYAML(body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.deps.Converter.Convert(rules)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	if persist, _ := strconv.ParseBool(r.URL.Query().Get("store")); persist && s.deps.Store != nil {
		if err := s.deps.Store.UpsertRules(r.Context(), res.Records); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := output.Encode(w, res.Records, 0); err != nil {
		s.deps.Log.Error().Err(err).Msg("write convert response")
	}
}

func (s *AppServer) handleListRules(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("rule store is not configured"))
		return
	}
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	out, err := s.deps.Store.ListRules(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- Helpers ----

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var rd io.Reader = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer zr.Close()
		// đọc dư 1 byte để phát hiện vượt giới hạn thay vì cắt cụt
		rd = io.LimitReader(zr, maxBodyBytes+1)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(b) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
