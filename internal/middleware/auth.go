package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/raghavpatnecha/ragserve/internal/errors"
	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// noAuthAPI lists routes reachable without an API key.
var noAuthAPI = map[string][]string{
	"/healthz": {"GET"},
}

func isNoAuthAPI(path string, method string) bool {
	for api, methods := range noAuthAPI {
		if strings.HasSuffix(api, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(api, "*")) && slices.Contains(methods, method) {
				return true
			}
		} else if path == api && slices.Contains(methods, method) {
			return true
		}
	}
	return false
}

// Auth resolves the X-API-Key header to a tenant via tenantService and
// stores the tenant ID/record on the request context. Tenant/API-key CRUD
// is out of scope (§1); this middleware only consumes the lookup.
func Auth(tenantService interfaces.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if isNoAuthAPI(c.Request.URL.Path, c.Request.Method) {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			abortUnauthorized(c, "missing X-API-Key header")
			return
		}

		tenantID, err := tenantService.ExtractTenantIDFromAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			abortUnauthorized(c, "invalid API key")
			return
		}

		tenant, err := tenantService.GetTenantByID(c.Request.Context(), tenantID)
		if err != nil {
			abortUnauthorized(c, "invalid API key")
			return
		}

		c.Set(types.TenantIDContextKey.String(), tenantID)
		c.Set(types.TenantInfoContextKey.String(), tenant)
		ctx := context.WithValue(c.Request.Context(), types.TenantIDContextKey, tenantID)
		ctx = context.WithValue(ctx, types.TenantInfoContextKey, tenant)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := apperrors.NewUnauthorizedError(message)
	c.JSON(appErr.HTTPCode, gin.H{"success": false, "error": gin.H{"code": appErr.Code, "message": appErr.Message}})
	c.Abort()
}

// TenantIDFromContext returns the tenant ID the Auth middleware attached to ctx.
func TenantIDFromContext(ctx context.Context) (string, error) {
	tenantID, ok := ctx.Value(types.TenantIDContextKey).(string)
	if !ok || tenantID == "" {
		return "", errors.New("tenant ID not found in context")
	}
	return tenantID, nil
}
