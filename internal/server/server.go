// Package server exposes the agent over HTTP: a JSON-RPC endpoint and a
// health check, served by a chi router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/ghissues-agent/config"
	"github.com/spiffcs/ghissues-agent/internal/a2a"
	"github.com/spiffcs/ghissues-agent/internal/agent"
	"github.com/spiffcs/ghissues-agent/internal/constants"
	"github.com/spiffcs/ghissues-agent/internal/jsonrpc"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

// Processor handles a decoded request. *agent.Agent implements it.
type Processor interface {
	Process(ctx context.Context, req agent.Request) *a2a.TaskResult
}

// Server serves the JSON-RPC and health endpoints.
type Server struct {
	cfg       config.ServerConfig
	processor Processor
	router    chi.Router
}

// New creates a Server that dispatches calls to p.
func New(cfg config.ServerConfig, p Processor) *Server {
	s := &Server{cfg: cfg, processor: p}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/rpc", s.handleRPC)
		r.Post("/", s.handleRPC)
	})
	return r
}

// Run listens on the configured address until ctx is canceled, then shuts
// down gracefully within constants.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(log.Logger().Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  constants.AgentName,
	})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeRPCError(w, nil, jsonrpc.ErrInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeRPCError(w, nil, jsonrpc.ErrParse(err.Error()))
		return
	}
	if log.IsTrace() {
		log.Trace("rpc request", "body", string(body))
	}

	req, rpcErr := jsonrpc.Decode(body)
	if rpcErr != nil {
		log.Debug("rejected rpc request", "code", rpcErr.Code, "error", rpcErr)
		writeRPCError(w, req.ID, rpcErr)
		return
	}

	result, rpcErr := s.dispatch(r.Context(), req)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	writeJSON(w, http.StatusOK, jsonrpc.NewResult(req.ID, result))
}

// dispatch runs the processor, converting a panic into an internal error so
// the caller still gets a JSON-RPC response.
func (s *Server) dispatch(ctx context.Context, req jsonrpc.Request) (result *a2a.TaskResult, rpcErr *jsonrpc.Error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while processing request", "method", req.Method, "panic", rec)
			result, rpcErr = nil, jsonrpc.ErrInternal(fmt.Sprint(rec))
		}
	}()

	return s.processor.Process(ctx, agent.Request{
		Message:       req.Params.Message,
		Configuration: req.Params.Configuration,
		TaskID:        req.Params.TaskID,
		ContextID:     req.Params.ContextID,
	}), nil
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, rpcErr *jsonrpc.Error) {
	writeJSON(w, rpcErr.HTTPStatus(), jsonrpc.NewErrorResponse(id, rpcErr))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to write response", "error", err)
	}
}

// requestLogger logs one line per request at info level. The request id
// and remote address are added at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !log.IsInfo() {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			}
			if log.IsDebug() {
				attrs = append(attrs,
					"request_id", middleware.GetReqID(r.Context()),
					"remote", r.RemoteAddr)
			}
			log.Info("request", attrs...)
		}()
		next.ServeHTTP(ww, r)
	})
}
