// Package server exposes the agent over a WebSocket chat endpoint and keeps
// per-conversation session state between turns.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neptuneai/swap-agent/core"
	"github.com/neptuneai/swap-agent/engine"
)

// turnTimeout bounds one whole turn: model calls plus tool calls.
const turnTimeout = 60 * time.Second

// historyKeep bounds the per-connection history buffer. The orchestrator
// trims further; this just caps memory per connection.
const historyKeep = 20

// ChatRequest is one inbound frame.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is one outbound frame.
type ChatResponse struct {
	Reply   string                   `json:"reply"`
	Action  string                   `json:"action,omitempty"`
	Payload *core.TransactionPayload `json:"payload,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// Server serves the chat endpoint.
type Server struct {
	orchestrator *engine.Orchestrator
	store        *Store
	upgrader     websocket.Upgrader
}

// New creates a server around the orchestrator.
func New(orchestrator *engine.Orchestrator, store *Store) *Server {
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler with the /ws and /health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	log.Printf("[SERVER] listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleWS runs one conversation per connection. The caller's wallet comes
// in as the "account" query parameter; without one the session runs
// unconnected and quoting is refused by the guardrails.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		accountID = core.AccountNotConnected
	}
	conversationID := uuid.NewString()
	defer s.store.Forget(conversationID)

	log.Printf("[SERVER] conversation %s started | account=%s", conversationID, accountID)

	var history []core.Message
	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Printf("[SERVER] conversation %s closed: %v", conversationID, err)
			return
		}
		if req.Message == "" {
			conn.WriteJSON(ChatResponse{Error: "empty message"})
			continue
		}

		result := s.processTurn(r.Context(), conversationID, req.Message, accountID, history)

		history = append(history,
			core.Message{Role: "user", Content: req.Message},
			core.Message{Role: "ai", Content: result.Reply},
		)
		if len(history) > historyKeep {
			history = history[len(history)-historyKeep:]
		}

		if err := conn.WriteJSON(ChatResponse{
			Reply:   result.Reply,
			Action:  result.Action,
			Payload: result.Payload,
		}); err != nil {
			log.Printf("[SERVER] conversation %s write failed: %v", conversationID, err)
			return
		}
	}
}

// processTurn serializes turns per conversation and threads session state
// through the orchestrator.
func (s *Server) processTurn(ctx context.Context, conversationID, message, accountID string, history []core.Message) core.TurnResult {
	lock := s.store.Lock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	state := s.store.Get(conversationID)
	result := s.orchestrator.ProcessMessage(turnCtx, message, state, core.UserContext{
		AccountID: accountID,
		History:   history,
	})
	s.store.Put(conversationID, result.NewState)

	var payload json.RawMessage
	if result.Payload != nil {
		payload, _ = json.Marshal(result.Payload)
	}
	log.Printf("[SERVER] conversation %s turn done | action=%q payload=%dB step=%s",
		conversationID, result.Action, len(payload), result.NewState.Step)
	return result
}
