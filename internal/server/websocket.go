package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS middleware on the HTTP side;
	// browser clients reach the socket through the same origin set.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsInbound is a client frame: either a chat message or an approval verdict.
type wsInbound struct {
	Text     string `json:"text,omitempty"`
	Approved *bool  `json:"approved,omitempty"`
}

type wsOutbound struct {
	outcomeResponse
	Error string `json:"error,omitempty"`
}

// websocket runs a full-duplex chat bridge over one session. Frames are
// processed sequentially; the engine serializes per-session work anyway.
func (s *Server) websocket(c *gin.Context) {
	sessionID := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed for session %s: %v", sessionID, err)
		return
	}
	defer func() { _ = conn.Close() }()
	s.logger.Info("WebSocket connected for session %s", sessionID)

	ctx := c.Request.Context()
	for {
		var frame wsInbound
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed for session %s: %v", sessionID, err)
			}
			return
		}

		var outcome wsOutbound
		switch {
		case frame.Approved != nil:
			recordApproval(*frame.Approved)
			resolved, err := s.engine.ResolveApproval(ctx, sessionID, *frame.Approved)
			if err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.outcomeResponse = toOutcomeResponse(resolved)
			}
		case frame.Text != "":
			submitted, err := s.engine.Submit(ctx, sessionID, frame.Text)
			if err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.outcomeResponse = toOutcomeResponse(submitted)
			}
		default:
			outcome.Error = "frame must carry text or approved"
		}

		if err := conn.WriteJSON(outcome); err != nil {
			s.logger.Warn("WebSocket write failed for session %s: %v", sessionID, err)
			return
		}
	}
}
