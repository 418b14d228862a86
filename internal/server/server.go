// Package server exposes the engine over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hailam/checkers/internal/board"
	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/game"
	"github.com/hailam/checkers/internal/storage"
)

// Server answers move generation and search queries. It keeps no game state;
// every request carries its position.
type Server struct {
	eng   *engine.Engine
	store *storage.Storage // optional, serves /api/stats
}

// New creates a server. store may be nil.
func New(eng *engine.Engine, store *storage.Storage) *Server {
	return &Server{eng: eng, store: store}
}

type moveDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Captured string `json:"captured,omitempty"`
	Move     string `json:"move"`
}

type positionRequest struct {
	Position string `json:"position"`
	Square   string `json:"square,omitempty"`
	Move     string `json:"move,omitempty"`
	Depth    int    `json:"depth,omitempty"`
}

type movesResponse struct {
	Moves   []moveDTO `json:"moves"`
	Capture bool      `json:"capture"`
	// Squares to highlight: pieces that can move, or targets of one piece.
	Origins      []string `json:"origins,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
}

type bestMoveResponse struct {
	Move     *moveDTO `json:"move"`
	Position string   `json:"position"`
	Score    float64  `json:"score"`
	Eval     string   `json:"eval"`
	Nodes    uint64   `json:"nodes"`
}

type applyResponse struct {
	Move     moveDTO `json:"move"`
	Position string  `json:"position"`
	// Active is the square that must capture next; empty when the turn passed.
	Active string `json:"active,omitempty"`
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Post("/moves", s.handleMoves)
		r.Post("/moves/square", s.handleSquareMoves)
		r.Post("/bestmove", s.handleBestMove)
		r.Post("/apply", s.handleApply)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()
	log.Printf("listening on %s", addr)

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	_, grid, side, ok := decodePosition(w, r)
	if !ok {
		return
	}

	moves, capture := s.eng.LegalMoves(side, grid)
	writeJSON(w, http.StatusOK, movesResponse{
		Moves:   toDTOs(moves),
		Capture: capture,
		Origins: squareNames(moves.Origins()),
	})
}

func (s *Server) handleSquareMoves(w http.ResponseWriter, r *http.Request) {
	req, grid, _, ok := decodePosition(w, r)
	if !ok {
		return
	}

	sq, err := board.ParseSquare(req.Square)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	moves, capture := s.eng.MovesForSquare(sq, grid)
	writeJSON(w, http.StatusOK, movesResponse{
		Moves:        toDTOs(moves),
		Capture:      capture,
		Destinations: squareNames(moves.Destinations()),
	})
}

func (s *Server) handleBestMove(w http.ResponseWriter, r *http.Request) {
	req, grid, side, ok := decodePosition(w, r)
	if !ok {
		return
	}

	depth := req.Depth
	if depth == 0 {
		depth = game.DefaultDepth
	}

	res, err := s.eng.BestMove(side, grid, depth)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	resp := bestMoveResponse{
		Position: board.FormatPosition(res.Grid, side),
		Score:    res.Score,
		Eval:     engine.ScoreToString(res.Score),
		Nodes:    res.Nodes,
	}
	if !res.Move.IsNone() {
		m := toDTO(res.Move)
		resp.Move = &m
		resp.Position = board.FormatPosition(res.Grid, nextSide(res.Grid, res.Move, side))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleApply plays a move given as "c3d4" or "c3xe5". The move is resolved
// against the legal moves of the side to move. During a capture chain the
// request carries the active square and only its captures are accepted.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	req, grid, side, ok := decodePosition(w, r)
	if !ok {
		return
	}

	parsed, err := board.ParseMove(req.Move)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var legal board.MoveList
	if req.Square == "" {
		legal, _ = s.eng.LegalMoves(side, grid)
	} else {
		active, err := board.ParseSquare(req.Square)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if grid.At(active).Color() == side {
			if moves, capture := s.eng.MovesForSquare(active, grid); capture {
				legal = moves
			}
		}
	}
	m, found := legal.Find(parsed)
	if !found {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": board.ErrIllegalMove.Error()})
		return
	}

	next, err := grid.Apply(m)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	after := nextSide(next, m, side)
	resp := applyResponse{
		Move:     toDTO(m),
		Position: board.FormatPosition(next, after),
	}
	if after == side {
		resp.Active = m.To.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no storage configured"})
		return
	}
	stats, err := s.store.LoadStats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func decodePosition(w http.ResponseWriter, r *http.Request) (positionRequest, board.Grid, board.Color, bool) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return req, board.Grid{}, board.NoColor, false
	}

	grid, side, err := board.ParsePosition(req.Position)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return req, board.Grid{}, board.NoColor, false
	}
	return req, grid, side, true
}

// nextSide returns who moves after m: the same side while the moved piece
// can capture again.
func nextSide(after board.Grid, m board.Move, side board.Color) board.Color {
	if !m.IsCapture() {
		return side.Other()
	}
	if _, more := after.MovesForSquare(m.To); more {
		return side
	}
	return side.Other()
}

func toDTO(m board.Move) moveDTO {
	d := moveDTO{From: m.From.String(), To: m.To.String(), Move: m.String()}
	if m.IsCapture() {
		d.Captured = m.Captured.String()
	}
	return d
}

func squareNames(squares []board.Square) []string {
	out := make([]string, len(squares))
	for i, sq := range squares {
		out[i] = sq.String()
	}
	return out
}

func toDTOs(moves board.MoveList) []moveDTO {
	out := make([]moveDTO, 0, len(moves))
	for _, m := range moves {
		out = append(out, toDTO(m))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
