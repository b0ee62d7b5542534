package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
)

type WebRTCController struct {
	iceServers []webrtc.ICEServer
}

func NewWebRTCController(stunServers []string) *WebRTCController {
	servers := make([]webrtc.ICEServer, 0, 1)
	if len(stunServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: append([]string(nil), stunServers...)})
	}
	return &WebRTCController{iceServers: servers}
}

// Config returns the ICE servers clients should hand to RTCPeerConnection.
func (c *WebRTCController) Config(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ice_servers": c.iceServers})
}
