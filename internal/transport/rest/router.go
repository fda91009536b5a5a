package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/docuvault/access-management/internal/access"
	"github.com/docuvault/access-management/internal/assignment"
	"github.com/docuvault/access-management/internal/auth"
	"github.com/docuvault/access-management/internal/grant"
	"github.com/docuvault/access-management/internal/profile"
	"github.com/docuvault/access-management/internal/transport/middleware"
	"github.com/docuvault/access-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, rbac *auth.RBACAuthorization, profileHandler *profile.Handler, grantHandler *grant.Handler, assignmentHandler *assignment.Handler, accessHandler *access.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				pr.Get("/users/me", authHandler.Me)

				// Profile routes
				if profileHandler != nil {
					pr.Route("/profiles", func(pfr chi.Router) {
						pfr.Get("/{id}", profileHandler.GetProfile)

						if grantHandler != nil {
							pfr.Get("/{id}/grants", grantHandler.GetProfileGrants)
						}
						if assignmentHandler != nil {
							pfr.Get("/{id}/assignments", assignmentHandler.GetProfileAssignments)
						}

						pfr.Group(func(mr chi.Router) {
							mr.Use(rbac.RequireProfileManagement())
							mr.Post("/", profileHandler.CreateProfile)
							mr.Patch("/{id}", profileHandler.UpdateProfile)
							mr.Patch("/{id}/deactivate", profileHandler.DeactivateProfile)
							mr.Patch("/{id}/reactivate", profileHandler.ReactivateProfile)
							mr.Delete("/{id}", profileHandler.DeleteProfile)
						})
					})

					pr.Get("/organizations/{orgID}/profiles", profileHandler.GetOrganizationProfiles)
				}

				if grantHandler != nil {
					pr.Get("/organizations/{orgID}/grants", grantHandler.GetOrganizationGrants)
				}
				if assignmentHandler != nil {
					pr.Get("/organizations/{orgID}/assignments", assignmentHandler.GetOrganizationAssignments)
				}

				// Folder grant routes
				if grantHandler != nil {
					pr.Route("/grants", func(gr chi.Router) {
						gr.Get("/{id}", grantHandler.GetGrant)

						gr.Group(func(mr chi.Router) {
							mr.Use(rbac.RequireGrantManagement())
							mr.Post("/", grantHandler.CreateGrant)
							mr.Patch("/{id}", grantHandler.UpdateGrant)
							mr.Patch("/{id}/deactivate", grantHandler.DeactivateGrant)
							mr.Patch("/{id}/reactivate", grantHandler.ReactivateGrant)
							mr.Delete("/{id}", grantHandler.DeleteGrant)
						})
					})
				}

				// Assignment routes
				if assignmentHandler != nil {
					pr.Route("/assignments", func(ar chi.Router) {
						ar.Get("/{id}", assignmentHandler.GetAssignment)

						ar.Group(func(mr chi.Router) {
							mr.Use(rbac.RequireAssignmentManagement())
							mr.Post("/", assignmentHandler.AssignProfile)
							mr.Patch("/{id}/revoke", assignmentHandler.RevokeAssignment)
							mr.Patch("/{id}/reactivate", assignmentHandler.ReactivateAssignment)
							mr.Patch("/{id}/deactivate", assignmentHandler.DeactivateAssignment)
							mr.Patch("/{id}/activate", assignmentHandler.ActivateAssignment)
							mr.Patch("/{id}/change-profile", assignmentHandler.ChangeAssignmentProfile)
							mr.Patch("/{id}/extend", assignmentHandler.ExtendAssignment)
							mr.Delete("/{id}", assignmentHandler.DeleteAssignment)
						})
					})

					pr.Get("/users/{userID}/assignments", assignmentHandler.GetUserAssignments)
					pr.Get("/users/{userID}/assignments/expiring", assignmentHandler.GetExpiringAssignments)
				}

				// Access resolution routes (read-only plane)
				if accessHandler != nil {
					pr.Group(func(acr chi.Router) {
						acr.Use(rbac.RequireAccessRead())
						acr.Post("/access/check", accessHandler.CheckAccess)
						acr.Get("/users/{userID}/access-context", accessHandler.GetUserContext)
						acr.Get("/organizations/{orgID}/permission-matrix", accessHandler.GetPermissionMatrix)
					})
				}
			})
		}
	})
}
