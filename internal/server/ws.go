package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"
)

// wsRequest is the incoming websocket message format.
type wsRequest struct {
	Type      string `json:"type"` // "ask" or "new_session"
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// wsResponse is the outgoing websocket message format.
type wsResponse struct {
	Type      string          `json:"type"` // "answer", "session" or "error"
	SessionID string          `json:"session_id,omitempty"`
	Answer    *answerResponse `json:"answer,omitempty"`
	Status    int             `json:"status,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// handleWebsocket runs an ask loop over one connection.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWS(conn, wsResponse{Type: "error", Status: http.StatusBadRequest, Error: "invalid message format"})
			continue
		}

		switch req.Type {
		case "new_session":
			s.mu.Lock()
			sess, err := s.newSession(r.Context())
			s.mu.Unlock()
			if err != nil {
				s.sendWS(conn, wsResponse{Type: "error", Status: statusFor(err), Error: err.Error()})
				continue
			}
			s.sendWS(conn, wsResponse{Type: "session", SessionID: sess.ID})
		case "ask", "":
			ans, err := s.ask(r, req.SessionID, req.Question)
			if err != nil {
				s.sendWS(conn, wsResponse{Type: "error", SessionID: req.SessionID, Status: statusFor(err), Error: err.Error()})
				continue
			}
			resp := toAnswerResponse(ans)
			s.sendWS(conn, wsResponse{Type: "answer", SessionID: req.SessionID, Answer: &resp})
		default:
			s.sendWS(conn, wsResponse{Type: "error", SessionID: req.SessionID, Status: http.StatusBadRequest, Error: "unknown message type " + req.Type})
		}
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Warn().Err(err).Msg("websocket write")
	}
}
