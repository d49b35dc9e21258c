package api

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	resdto "groupbuy/internal/handler/dto/response"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// OfferWatcher streams the latest projection of one offer until ctx ends.
type OfferWatcher interface {
	Watch(ctx context.Context, offerID uuid.UUID) (<-chan *queries.OfferView, error)
}

type LiveHandler struct {
	watcher  OfferWatcher
	upgrader websocket.Upgrader
}

func NewLiveHandler(watcher OfferWatcher, cfg config.Config) *LiveHandler {
	return &LiveHandler{
		watcher: watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowedOrigin(cfg.CORS.AllowOrigins),
		},
	}
}

// allowedOrigin applies the CORS origin list to websocket handshakes.
// Requests without an Origin header come from non-browser clients.
func allowedOrigin(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}

// @Summary Live offer updates
// @Description Websocket stream of the offer's counters and status. The first message is the current state.
// @Tags offers
// @Param id path string true "Offer ID"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /offers/{id}/live [get]
func (h *LiveHandler) Stream(c *gin.Context) {
	offerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := h.watcher.Watch(ctx, offerID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		slog.Warn("websocket upgrade failed", "offer_id", offerID.String(), "error", err.Error())
		return
	}
	defer conn.Close()

	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case v, open := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "offer removed"))
				return
			}
			if err := conn.WriteJSON(resdto.FromOfferView(v)); err != nil {
				slog.Debug("live stream write failed", "offer_id", offerID.String(), "error", err.Error())
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream once the client goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
