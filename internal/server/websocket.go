package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	wsReadLimit    = 4096
	wsQueryTimeout = 60 * time.Second
)

// StreamReply answers one websocket query frame. Exactly one field is set.
type StreamReply struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleWebsocket handles GET /ws. Every text frame is a query; each gets
// one JSON reply, in order.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(s.cfg.CORSAllowedOrigins),
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server closing")
	conn.SetReadLimit(wsReadLimit)

	log := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	log.Debug().Msg("Websocket client connected")

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Debug().Msg("Websocket client disconnected")
			default:
				if !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Msg("Websocket read failed")
				}
			}
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		reply := s.answer(ctx, string(data))
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			log.Warn().Err(err).Msg("Websocket write failed")
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, text string) StreamReply {
	qctx, cancel := context.WithTimeout(ctx, wsQueryTimeout)
	defer cancel()

	res, err := s.coordinator.ProcessQuery(qctx, text)
	if err != nil {
		return StreamReply{Error: err.Error()}
	}
	return StreamReply{Result: res.Value}
}

// originHosts turns CORS origins into the host patterns websocket.Accept
// matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return hosts
}
