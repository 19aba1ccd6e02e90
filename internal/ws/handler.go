package ws

import (
	"errors"
	"net/http"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades /ws?hub=<id>&token=<jwt> for members of the hub.
func HandleWS(hub *Hub, chat Chat, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  maxFrameSize,
		WriteBufferSize: maxFrameSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowedOrigins) == 0 || origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		hubID := c.Query("hub")
		if token == "" || hubID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and hub required"})
			return
		}
		wallet, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if err := chat.CanJoin(c.Request.Context(), hubID, wallet); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "hub not found"})
			case errors.Is(err, domain.ErrNotMember):
				c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this hub"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}
		go NewClient(wallet, hubID, conn, hub, chat).Run()
	}
}
