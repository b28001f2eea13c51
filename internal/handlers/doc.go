// Package handlers implements the HTTP endpoints of the email relay.
package handlers
