// Package server provides the HTTP API of the session monitor daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/internal/daemon/engine"
	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/dairui1/vibetunnel/pkg/daemon"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	engine        *engine.Engine
	mgr           *sessions.Manager
	runningConfig *daemon.RunningConfig
}

// New creates a new Server instance.
func New(mgr *sessions.Manager, logger *logrus.Entry) *Server {
	return &Server{
		mgr:    mgr,
		logger: logger,
	}
}

// SetEngine sets the collector engine for the server.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *daemon.RunningConfig) {
	s.runningConfig = cfg
}

// Handler returns the API routes wrapped for h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/cleanup-exited", s.handleCleanupExited)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)

	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return s.Serve(listener)
}

// Serve serves the API on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.server = &http.Server{Handler: s.Handler()}

	s.logger.WithField("addr", listener.Addr().String()).Info("Daemon listening")
	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleListSessions lists the control directory, reconciling dead running
// sessions on the way, and refreshes the snapshot with the result so stream
// subscribers see the same list.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.mgr.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.engine != nil {
		s.engine.Publish(store.Update{
			Type:    store.UpdateSessions,
			Source:  "api",
			Scanned: len(list),
			Payload: list,
		})
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetSession reads one session fresh from disk.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.mgr.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.mgr.Cleanup(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.publishRemoved([]string{id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCleanupExited(w http.ResponseWriter, r *http.Request) {
	removed, err := s.mgr.CleanupExited()
	if removed == nil && err != nil {
		s.writeError(w, err)
		return
	}

	result := daemon.CleanupResult{Removed: removed}
	for _, e := range splitJoined(err) {
		result.Errors = append(result.Errors, e.Error())
	}
	if len(removed) > 0 {
		s.publishRemoved(removed)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) publishRemoved(ids []string) {
	if s.engine == nil {
		return
	}
	s.engine.Publish(store.Update{
		Type:    store.UpdateRemoved,
		Source:  "api",
		Scanned: len(ids),
		Payload: ids,
	})
}

// handleStream provides Server-Sent Events (SSE) for real-time session updates.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "engine not initialized"))
		return
	}

	// Ensure the connection supports flushing
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.engine.Store().Subscribe()
	defer s.engine.Store().Unsubscribe(ch)

	// Send initial ping to confirm connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE client connected")

	// Send current state immediately so client has data right away
	initial := &daemon.StateUpdate{
		Sessions:   s.engine.Store().GetSessions(),
		UpdateType: "initial",
	}
	initial.Scanned = len(initial.Sessions)
	if data, err := json.Marshal(initial); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			apiUpdate := convertToAPIUpdate(update)
			if apiUpdate == nil {
				continue
			}

			data, err := json.Marshal(apiUpdate)
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal update")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// convertToAPIUpdate converts internal store.Update to the public API format.
func convertToAPIUpdate(u store.Update) *daemon.StateUpdate {
	switch u.Type {
	case store.UpdateSessions:
		list, _ := u.Payload.([]*sessions.Session)
		return &daemon.StateUpdate{
			Sessions:   list,
			UpdateType: string(store.UpdateSessions),
			Source:     u.Source,
			Scanned:    len(list),
		}
	case store.UpdateRemoved:
		ids, _ := u.Payload.([]string)
		return &daemon.StateUpdate{
			Removed:    ids,
			UpdateType: string(store.UpdateRemoved),
			Source:     u.Source,
			Scanned:    len(ids),
		}
	}
	return nil
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "config not initialized"))
		return
	}
	writeJSON(w, http.StatusOK, s.runningConfig)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	body := daemon.ErrorResponse{
		Code:    string(code),
		Message: err.Error(),
	}
	if vtErr, ok := errors.As(err); ok {
		body.Message = vtErr.Message
		body.Details = vtErr.Details
	}

	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Warn("Request failed")
	}
	writeJSON(w, status, body)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidSessionID, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeSessionExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// splitJoined flattens an errors.Join result.
func splitJoined(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
