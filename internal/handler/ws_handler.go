package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/events"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/response"
	ws "github.com/stemsi/classroom-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams committed workflow events to connected admins.
type WSHandler struct {
	bus      events.Bus
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(bus events.Bus, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:      bus,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// EventStream godoc
// WS /ws/v1/events?token=
// Pushes request and attendance events. Clients may send {"action":"filter","class_id":N}
// to only receive one class's events, and {"action":"ping"} to keep the connection alive.
func (h *WSHandler) EventStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	// Subscribe before upgrading so a broker failure can still be reported over HTTP.
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stream, err := h.bus.Subscribe(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Event subscriber connected")

	// The reader goroutine only parses; every write happens on this goroutine.
	requests := make(chan ws.Request)
	go func() {
		defer cancel()
		for {
			req, err := ws.ReadRequest(conn)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	classFilter := 0
	for {
		select {
		case <-ctx.Done():
			return

		case req := <-requests:
			var werr error
			switch req.Action {
			case ws.ActionPing:
				werr = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionFilter:
				classFilter = 0
				if req.ClassID != nil && *req.ClassID > 0 {
					classFilter = *req.ClassID
				}
				werr = ws.WriteTyped(conn, ws.FilteredResponse{Event: ws.EventFiltered, ClassID: classFilter})
			default:
				wsLog.Warn().Str("action", string(req.Action)).Msg("Unknown action")
				werr = ws.WriteError(conn, "unknown action: "+string(req.Action))
			}
			if werr != nil {
				return
			}

		case ev, ok := <-stream:
			if !ok {
				return
			}
			if !matchesFilter(ev, classFilter) {
				continue
			}
			if err := ws.WriteTyped(conn, ws.WorkflowResponse{Event: ws.EventWorkflow, Data: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		}
	}
}

func matchesFilter(ev model.Event, classID int) bool {
	return classID == 0 || ev.ClassID == classID
}
