package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
)

const pingInterval = 25 * time.Second

type RealtimeController struct {
	RT       *services.RealtimeHub
	upgrader websocket.Upgrader
}

// NewRealtimeController accepts upgrades from origins allowed by check;
// nil allows any origin.
func NewRealtimeController(rt *services.RealtimeHub, check func(r *http.Request) bool) *RealtimeController {
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &RealtimeController{
		RT:       rt,
		upgrader: websocket.Upgrader{CheckOrigin: check},
	}
}

// GET /ws streams meal and stats events of the authenticated user.
func (rc *RealtimeController) Events(c *gin.Context) {
	uid, ok := userIDFromCtx(c)
	if !ok {
		unauthorized(c)
		return
	}

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &services.WSClient{UserID: uid, Conn: conn}
	rc.RT.Register(cl)

	done := make(chan struct{})
	defer close(done)

	// keep connections alive through proxies
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.Ping(); err != nil {
					rc.RT.Unregister(cl)
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			rc.RT.Unregister(cl)
			return
		}
	}
}
