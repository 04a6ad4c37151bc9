package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/response"
	"github.com/stemsi/englishgpt-practice/internal/service"
	ws "github.com/stemsi/englishgpt-practice/internal/websocket"
)

const eventBuffer = 32

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

// WSHandler streams one practice session over a WebSocket.
type WSHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(practiceService *service.PracticeService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		practiceService: practiceService,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/practice/sessions/:session_id/stream
// Accepts session actions and pushes state, tick and graded events.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	events, unsubscribe, err := h.practiceService.Subscribe(id, eventBuffer)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Client connected")

	w := ws.NewWriter(conn)
	ws.KeepAlive(conn)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if snap, err := h.practiceService.State(ctx, id); err == nil {
		w.WriteTyped(ws.StateResponse{Event: ws.EventState, State: snap})
	}

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		h.forward(ctx, w, events, conn, ws.PingPeriod)
	}()
	defer func() { <-forwardDone }()
	defer cancel()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if msg.Action == ws.ActionPing {
			w.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}

		if err := h.dispatch(ctx, id, &msg); err != nil {
			_, code := classify(err)
			w.WriteError(string(code), err.Error())
		}
	}
}

// forward relays runner events until the session closes or the client
// leaves, and pings the client every pingPeriod so a watch-only client is
// not timed out.
func (h *WSHandler) forward(ctx context.Context, w *ws.Writer, events <-chan practice.Event, conn io.Closer, pingPeriod time.Duration) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := w.WritePing(); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				w.WriteError(string(response.ErrSessionNotFound), "session closed")
				conn.Close()
				return
			}
			if err := w.WriteTyped(ws.FromRunnerEvent(ev)); err != nil {
				return
			}
		}
	}
}

// dispatch applies one client action. State changes reach the client
// through the event stream, so only failures are answered directly.
func (h *WSHandler) dispatch(ctx context.Context, id uuid.UUID, msg *ws.RequestPayload) error {
	var err error
	switch msg.Action {
	case ws.ActionStart:
		_, err = h.practiceService.Start(ctx, id)
	case ws.ActionPause:
		_, err = h.practiceService.Pause(ctx, id)
	case ws.ActionResume:
		_, err = h.practiceService.Resume(ctx, id)
	case ws.ActionSubmit:
		_, err = h.practiceService.Submit(ctx, id)
	case ws.ActionReset:
		_, err = h.practiceService.Reset(ctx, id)
	case ws.ActionReview:
		_, err = h.practiceService.Review(ctx, id)
	case ws.ActionNext:
		_, err = h.practiceService.NextCategory(ctx, id)
	case ws.ActionSelect:
		if msg.Category == "" {
			return errMissingField("category")
		}
		_, err = h.practiceService.SelectCategory(ctx, id, msg.Category)
	case ws.ActionAnswer:
		if msg.QuestionIndex == nil || msg.OptionIndex == nil {
			return errMissingField("question_index and option_index")
		}
		_, err = h.practiceService.RecordAnswer(ctx, id, *msg.QuestionIndex, *msg.OptionIndex)
	default:
		return errUnknownAction(msg.Action)
	}
	return err
}
