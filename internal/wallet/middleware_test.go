package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeBalanceService struct {
	bal Balance
	err error
}

func (f fakeBalanceService) GetBalance(ctx context.Context, userID string) (Balance, error) {
	return f.bal, f.err
}

func serve(svc BalanceService, target string) int {
	r := gin.New()
	r.GET("/x", RequirePositiveBalance(svc, func(c *gin.Context) string { return c.Query("userId") }), func(c *gin.Context) {
		c.Status(200)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w.Code
}

func TestRequirePositiveBalance_BlocksWhenEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serve(fakeBalanceService{bal: Balance{UserID: "u1", Balance: 0}}, "/x?userId=u1"); code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", code)
	}
}

func TestRequirePositiveBalance_AllowsFunded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serve(fakeBalanceService{bal: Balance{UserID: "u1", Balance: 10}}, "/x?userId=u1"); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequirePositiveBalance_UnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serve(fakeBalanceService{err: ErrNotFound}, "/x?userId=u1"); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestRequirePositiveBalance_PassesWithoutUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if code := serve(fakeBalanceService{}, "/x"); code != 200 {
		t.Fatalf("expected pass-through, got %d", code)
	}
}
