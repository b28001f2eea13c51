// Package server is a small HTTP application layer on top of chi.
//
// Handlers return errors instead of writing failures themselves:
//
//	type Handler interface{ Routes(r Router) }
//	type HandlerFunc func(c Context) error
//
// An App is configured once through functional options and is immutable
// afterwards. Errors returned by handlers and middleware are passed to the
// configured ErrorHandler unless a response has already been written.
//
//	app := server.New(
//		server.WithCustomLogger(log),
//		server.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//		server.WithHandlers(handlers.NewEmailHandler(gw, renderer, cfg)),
//		server.WithErrorHandler(handlers.HandleError),
//		server.WithHealthChecks(),
//	)
//	err := app.Run(":3000", server.Logger(log), server.ShutdownTimeout(10*time.Second))
//
// Run listens before serving, stops on SIGINT or SIGTERM, drains in-flight
// requests and then runs shutdown hooks.
package server
