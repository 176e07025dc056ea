// Package server exposes a calendar view to its rendering client as JSON
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cpuguy83/calview/internal/view"
	"github.com/cpuguy83/calview/internal/wire"
)

// Server serializes client requests onto one calendar.
type Server struct {
	mu  sync.Mutex
	cal *view.Calendar
	mux *http.ServeMux
}

// New constructs a Server for cal.
func New(cal *view.Calendar) *Server {
	s := &Server{
		cal: cal,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "listen", "http://"+addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/rpc", s.handleRPC)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.respondState(r.Context(), w)
}

// rpcRequest is a client event. Which fields are used depends on Method.
type rpcRequest struct {
	Method string `json:"method"`

	Index    int    `json:"index"`
	Value    string `json:"value"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Key      string `json:"key"`
	Position int    `json:"position"`

	// Drop position for translateDrop; Slot is absent for whole-day drops.
	Day  int  `json:"day"`
	Slot *int `json:"slot"`
}

type dropResponse struct {
	Time        string `json:"time"`
	HasDropTime bool   `json:"hasDropTime"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	c := s.cal

	switch req.Method {
	case "itemMove":
		c.ItemMove(ctx, req.Index, req.Value)
	case "itemResize":
		c.ItemResize(ctx, req.Index, req.Start, req.End)
	case "rangeSelect":
		c.RangeSelect(req.Value)
	case "forward":
		c.Forward()
	case "backward":
		c.Backward()
	case "dateClick":
		c.DateClick(req.Value)
	case "weekClick":
		c.WeekClick(req.Value)
	case "itemClick":
		c.ItemClick(req.Index)
	case "scroll":
		c.Scroll(req.Position)
	case "actionOnEmptyCell":
		c.ActionOnEmptyCell(ctx, req.Key, req.Start, req.End)
	case "actionOnItem":
		c.ActionOnItem(ctx, req.Key, req.Start, req.End, req.Index)
	case "translateDrop":
		d := wire.DropDetails{DayIndex: req.Day}
		if req.Slot != nil {
			d.SlotIndex, d.HasSlot = *req.Slot, true
		}
		target := c.TranslateDrop(d)
		writeJSON(w, http.StatusOK, dropResponse{
			Time:        target.Time.Format(time.RFC3339),
			HasDropTime: target.HasDropTime,
		})
		return
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown method %q", req.Method))
		return
	}

	slog.Debug("handled rpc", "method", req.Method)
	s.respondState(ctx, w)
}

// respondState recomputes the calendar when needed and writes its state.
// Callers hold s.mu.
func (s *Server) respondState(ctx context.Context, w http.ResponseWriter) {
	if s.cal.Dirty() {
		if err := s.cal.Recompute(ctx); err != nil {
			slog.Warn("failed to recompute view", "error", err)
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, s.cal.State())
}

// statusFor maps recompute errors caused by the requested range to 422 and
// everything else to 502, since it came from an item source.
func statusFor(err error) int {
	var tooLarge *view.RangeTooLargeError
	var missing *view.MissingBoundError
	if errors.As(err, &tooLarge) || errors.As(err, &missing) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
