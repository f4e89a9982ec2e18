package api

import (
	"fmt"
	"log"
	"net/http"

	"synchsphere-backend/realtime"
)

// EventStreamHandler serves a server-sent events stream carrying account
// activity and reminder announcements published on the bus.
func EventStreamHandler(bus *realtime.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)

		// Handshake frame so clients know the stream is live before any
		// activity happens.
		fmt.Fprint(w, realtime.FormatMessage("connected", "connected"))
		flusher.Flush()

		for {
			msg, ok := sub.Next(r.Context())
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				log.Printf("Error writing to event stream: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
