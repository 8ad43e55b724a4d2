package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"wheelbot/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamError is sent in place of a reading that failed.
type StreamError struct {
	Error string `json:"error"`
}

// DistanceStream pushes a DistanceResponse every interval until the client
// goes away. The unit query parameter works as for Distance.
func (s *Server) DistanceStream(w http.ResponseWriter, r *http.Request) {
	unitName := r.URL.Query().Get("unit")
	if _, err := core.ParseDistanceUnit(unitName); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	// Reads are only needed to notice the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		var msg interface{}
		if resp, err := s.measure(unitName); err != nil {
			msg = StreamError{Error: err.Error()}
		} else {
			msg = resp
		}
		conn.SetWriteDeadline(time.Now().Add(s.interval + time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			log.Println("write:", err)
			return
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
