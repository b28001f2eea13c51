package server

// Handler registers routes on a Router.
type Handler interface {
	Routes(r Router)
}

// HandlerFunc handles a request and returns an error for the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders an error returned by a handler or middleware.
type ErrorHandler func(Context, error) error
