package handlers

import (
	"catalogsync/internal/middleware"
	"catalogsync/internal/protocol"

	"github.com/labstack/echo/v4"
)

// ProviderRoutes wires the Transfer Protocol and the catalog admin routes.
type ProviderRoutes struct {
	Protocol   *ProtocolHandlers
	Catalog    *CatalogHandlers
	Auth       echo.MiddlewareFunc
	Capability string
	Audit      *middleware.AuditMiddleware
	Version    *middleware.VersionMiddleware
}

func RegisterProviderRoutes(e *echo.Echo, r ProviderRoutes) {
	api := r.Version.VersionRoute(e, protocol.Namespace, "v1")
	api.Use(r.Auth, middleware.RequireCapability(r.Capability))

	api.GET("/attributes", r.Protocol.ListAttributes)
	api.GET("/attributes/:slug", r.Protocol.GetAttribute)
	api.GET("/attributes/:attribute_slug/terms", r.Protocol.ListTerms)

	catalog := api.Group("/catalog", r.Audit.AuditMutations())
	catalog.POST("/attributes", r.Catalog.CreateAttribute)
	catalog.PUT("/attributes/:id", r.Catalog.UpdateAttribute)
	catalog.POST("/attributes/:attribute_slug/terms", r.Catalog.CreateTerm)
	catalog.PUT("/terms/:id", r.Catalog.UpdateTerm)
	catalog.PUT("/terms/:id/image", r.Catalog.SetTermImage)
	catalog.DELETE("/terms/:id/image", r.Catalog.ClearTermImage)
}

// ClientRoutes wires the client's sync admin routes.
type ClientRoutes struct {
	Sync            *SyncHandlers
	Jobs            *JobHandlers
	AdminAuth       echo.MiddlewareFunc
	AdminCapability string
	Version         *middleware.VersionMiddleware
}

func RegisterClientRoutes(e *echo.Echo, r ClientRoutes) {
	v1 := r.Version.VersionRoute(e, "/v1", "v1")
	sync := v1.Group("/sync", r.AdminAuth, middleware.RequireCapability(r.AdminCapability))
	sync.POST("/attributes", r.Sync.TriggerSync)
	sync.GET("/provider-attributes", r.Sync.ProviderAttributes)
	sync.GET("/jobs", r.Jobs.ListJobs)
	sync.POST("/jobs/:name/run", r.Jobs.RunJob)
}

func RegisterHealthRoutes(e *echo.Echo, h *HealthHandlers) {
	e.GET("/health", h.LivenessCheck)
	e.GET("/health/ready", h.ReadinessCheck)
	e.GET("/health/detailed", h.DetailedHealthCheck)
}
