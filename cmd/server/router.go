package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/omniprompt/internal/api"
	apiMiddleware "github.com/phrazzld/omniprompt/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.config.Auth, app.jwtService, app.verifier)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	runHandler := api.NewRunHandler(app.runService)
	templateHandler := api.NewTemplateHandler(app.library)
	recordHandler := api.NewRecordHandler(app.recordStore)

	r.Route("/api", func(r chi.Router) {
		// Token exchange (public)
		r.Post("/auth/token", authHandler.Token)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/runs", func(r chi.Router) {
				r.Post("/", runHandler.CreateRun)
				r.Get("/{id}", runHandler.GetRun)
				r.Post("/{id}/cancel", runHandler.CancelRun)
				r.Patch("/{id}/outcomes/{index}", runHandler.EditOutcome)
				r.Post("/{id}/commit", runHandler.Commit)
				r.Post("/{id}/discard", runHandler.Discard)
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", templateHandler.ListTemplates)
				r.Put("/{name}", templateHandler.SaveTemplate)
			})

			r.Get("/records/types/{type}/fields", recordHandler.ListFields)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
