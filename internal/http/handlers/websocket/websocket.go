package websocket

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/asset-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/asset-service/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Progress streams carry no credentials; any origin may watch
		return true
	},
}

// BatchProgress godoc
// @Summary      Stream bulk upload progress
// @Description  Upgrades to a websocket that receives batch.started, batch.row and batch.finished events for one batch
// @Tags         bulk
// @Param        id   path      string  true  "Batch ID"
// @Success      101
// @Failure      400  {object}  response.Response
// @Router       /ws/batches/{id} [get]
func BatchProgress(hub *wsClient.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID := r.PathValue("id")
		if _, err := uuid.Parse(batchID); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid batch id")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, batchID, hub)
		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}
		client.Start()

		slog.Info("WebSocket connection established", slog.String("batch_id", batchID))
	}
}
