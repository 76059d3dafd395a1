package middleware

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

// APIVersion describes one published version of a route group.
type APIVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionMiddleware stamps responses with the API version they were served by.
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {
				Version: "v1",
				Status:  "active",
				Message: "Current stable API version",
			},
		},
	}
}

func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

// VersionRoute creates a route group under prefix stamped with version.
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, prefix, version string) *echo.Group {
	group := e.Group(prefix)
	group.Use(vm.VersionHeader(version))
	return group
}

func (vm *VersionMiddleware) SupportedVersions() []APIVersion {
	versions := make([]APIVersion, 0, len(vm.supportedVersions))
	for _, v := range vm.supportedVersions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions
}

// ListVersions godoc
// @Summary      List the API versions this server speaks
// @Tags         meta
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /versions [get]
func (vm *VersionMiddleware) ListVersions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"versions": vm.SupportedVersions(),
	})
}
