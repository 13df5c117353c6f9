package broker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	pb "go.linemq.dev/core/broker/protocol"
)

// StatusHandler serves JSON snapshots of Registry topics. The optional
// and repeatable `topic` query parameter filters to the named topics.
type StatusHandler struct {
	decoder *schema.Decoder
	reg     *Registry
}

// NewStatusHandler returns a StatusHandler of the Registry.
func NewStatusHandler(reg *Registry) *StatusHandler {
	var decoder = schema.NewDecoder()
	decoder.IgnoreUnknownKeys(false)

	return &StatusHandler{decoder: decoder, reg: reg}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" && r.Method != "HEAD" {
		http.Error(w, fmt.Sprintf("unknown method: %s", r.Method), http.StatusMethodNotAllowed)
		return
	}

	var query struct {
		Topic []string `schema:"topic"`
	}
	if err := h.decoder.Decode(&query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var status = h.reg.Status(query.Topic...)
	if len(query.Topic) != 0 && len(status) == 0 {
		http.Error(w, pb.ErrTopicNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	var enc = json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(status); err != nil {
		log.WithField("err", err).Warn("failed to write topic status response")
	}
}
