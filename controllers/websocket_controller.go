package controllers

import (
	"rescuenet/websocket"

	"github.com/gin-gonic/gin"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// HandleConnection handles GET /ws, upgrading the request and handing the
// connection to the hub.
func (wc *WebSocketController) HandleConnection(c *gin.Context) {
	websocket.ServeWS(wc.hub, c.Writer, c.Request)
}
