package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades an authenticated admin request and streams hub
// messages until the browser disconnects. originPatterns restricts which
// hosts may open the socket; empty means same origin only.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn).Run(r.Context())
	}
}
