package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/play"
)

// MapSocketMessage is a frame sent by the client over the map socket: a
// map event, or a draft of the guess text when Type is "draft".
type MapSocketMessage struct {
	MapEventRequest
	Text string `json:"text,omitempty"`
}

const mapEventDraft = "draft"

// handleMapWS streams map events over one connection, answering each frame
// with the updated state. Pointer moves during a drag are too frequent for
// one POST each.
func handleMapWS(logger *slog.Logger, res *assets.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playSession(r)
		log := logger.With("session_id", sess.ID)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		for {
			var msg MapSocketMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				log.Debug("map socket read ended", "error", err)
				return
			}

			reply, err := applySocketMessage(sess, msg, res)
			if errors.Is(err, play.ErrSessionClosed) {
				conn.Close(websocket.StatusGoingAway, "session ended")
				return
			}
			if err != nil {
				reply = ErrorResponse{Error: err.Error()}
			}

			if err := wsjson.Write(ctx, conn, reply); err != nil {
				log.Debug("map socket write failed", "error", err)
				return
			}
		}
	}
}

func applySocketMessage(sess *play.Session, msg MapSocketMessage, res *assets.Resolver) (any, error) {
	if msg.Type == mapEventDraft {
		if err := sess.SetGuess(msg.Text); err != nil {
			return nil, err
		}
		return MapEventResponse{State: newPlayState(sess.Snapshot(), res)}, nil
	}

	placed, snap, err := applyMapEvent(sess, msg.MapEventRequest)
	if err != nil {
		return nil, err
	}
	return MapEventResponse{Placed: placed, State: newPlayState(snap, res)}, nil
}
