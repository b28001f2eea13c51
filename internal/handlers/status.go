package handlers

import (
	"net/http"

	"github.com/dmitrymomot/mailrelay/internal/server"
)

// StatusHandler serves the plain-text banner at GET /.
type StatusHandler struct {
	banner string
}

// NewStatusHandler creates a handler answering "<serviceName> is running!".
func NewStatusHandler(serviceName string) *StatusHandler {
	return &StatusHandler{banner: serviceName + " is running!"}
}

// Routes registers GET /.
func (h *StatusHandler) Routes(r server.Router) {
	r.GET("/", h.status)
}

func (h *StatusHandler) status(c server.Context) error {
	return c.String(http.StatusOK, h.banner)
}
