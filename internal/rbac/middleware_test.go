package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"brandbuzz/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(role string, allowed ...string) int {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithIdentity(c.Request.Context(), "u", role)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole(RoleSuperAdmin, RoleAdmin); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_UserDenied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole(RoleUser, RoleAdmin); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serveWithRole("", RoleAdmin); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(RoleAdmin) || IsValid("network_operator") {
		t.Fatalf("unexpected role validity")
	}
}
