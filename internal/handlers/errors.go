package handlers

import (
	"net/http"

	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/middlewares"
)

// Caller-facing messages for failures outside a handler's control.
const (
	MsgInternal         = "Internal server error."
	MsgRequestTimeout   = "Request timed out."
	MsgNotFound         = "Route not found."
	MsgMethodNotAllowed = "Method not allowed."
	MsgBodyTooLarge     = "Request body is too large."
	MsgRenderFailed     = "Failed to render email content."
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// HandleError renders any error returned by a handler or middleware as
// {error, details}.
func HandleError(c server.Context, err error) error {
	if herr := server.AsHTTPError(err); herr != nil {
		if herr.Code >= http.StatusInternalServerError {
			c.LogError("request failed", "status", herr.Code, "error", err)
		}
		return c.JSON(herr.Code, ErrorResponse{Error: herr.Message, Details: herr.Details})
	}

	if te, ok := middlewares.AsTimeoutError(err); ok {
		return c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   MsgRequestTimeout,
			Details: "no response within " + te.Duration.String(),
		})
	}

	if !middlewares.IsPanicError(err) {
		c.LogError("unhandled error", "error", err)
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: MsgInternal})
}

// NotFound answers unmatched routes.
func NotFound(c server.Context) error {
	return server.ErrNotFound(MsgNotFound, server.WithDetails(c.Request().Method+" "+c.Request().URL.Path))
}

// MethodNotAllowed answers known routes requested with another method.
func MethodNotAllowed(c server.Context) error {
	return server.ErrMethodNotAllowed(MsgMethodNotAllowed, server.WithDetails(c.Request().Method+" "+c.Request().URL.Path))
}
