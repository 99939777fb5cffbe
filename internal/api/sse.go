package api

import (
	"fmt"
	"net/http"
)

// handleLiveSync is the Server-Sent Events stream behind live dashboard and
// landing-page sync. Clients get one message per published topic and are
// expected to refetch the affected resource; the stream itself carries no
// state and makes no delivery guarantee.
func (s *Server) handleLiveSync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", s.config.ParsedFrontendURL.String())

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorJSON(w, fmt.Errorf("streaming unsupported"), http.StatusInternalServerError)
		return
	}

	clientID, clientChan := s.broker.Subscribe()
	defer s.broker.Unsubscribe(clientID)

	// An initial comment line commits the headers so the client's
	// EventSource fires its open event right away.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case message, open := <-clientChan:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
