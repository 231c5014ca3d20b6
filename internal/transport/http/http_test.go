package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/memory"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/invoicesvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/menusvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/services/usersvc"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type discardMailer struct{}

func (discardMailer) SendEmail(context.Context, string, string, string) error {
	return nil
}

type testServer struct {
	handler      http.Handler
	userID       int64
	restaurantID int64
	menuIDs      []int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	work := store.NewUnitOfWork()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := work.UserRepository().Insert(ctx, user.User{
		Name: "Asha", Username: "asha_k", Email: "asha@example.com", MobileNo: "9876543210",
		PasswordHash: hash, Verified: true,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r, err := work.RestaurantRepository().Insert(ctx, restaurant.Restaurant{Name: "Spice Route"})
	if err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	srv := &testServer{userID: u.ID, restaurantID: r.ID}
	for _, m := range []menu.Menu{
		{RestaurantID: r.ID, ItemName: "Burger", Price: decimal.NewFromInt(10), Available: true},
		{RestaurantID: r.ID, ItemName: "Fries", Price: decimal.NewFromInt(5), Available: true},
	} {
		created, err := work.MenuRepository().Insert(ctx, m)
		if err != nil {
			t.Fatalf("seed menu: %v", err)
		}
		srv.menuIDs = append(srv.menuIDs, created.ID)
	}

	factory := store.Factory()
	orders := ordersvc.MustNewOrderService(ordersvc.WithUnitOfWorkFactory(factory))
	transport := NewHTTPTransport(Services{
		Orders:   orders,
		Invoices: invoicesvc.NewInvoiceService(factory, orders),
		Menus:    menusvc.NewMenuService(factory),
		Users: usersvc.MustNewUserService(
			usersvc.WithUnitOfWorkFactory(factory),
			usersvc.WithMailer(discardMailer{}),
			usersvc.WithSessionStore(memory.NewSessionRepository()),
			usersvc.WithTokenSecret([]byte("test-secret"), time.Hour),
			usersvc.WithBcryptCost(bcrypt.MinCost),
		),
	})
	transport.RegisterRoutes()
	srv.handler = transport.Handler()

	return srv
}

func (s *testServer) do(t *testing.T, method, target, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	body := map[string]any{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s %s: %v", method, target, err)
		}
	}

	return rec, body
}

func (s *testServer) createOrderURL(menuIDs, quantities string) string {
	return "/api/orders/order/create?userId=" + itoa(s.userID) +
		"&restaurantId=" + itoa(s.restaurantID) +
		"&menuIds=" + menuIDs + "&quantities=" + quantities
}

func itoa(n int64) string {
	return decimal.NewFromInt(n).String()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", rec.Code, body)
	}
}

func TestCreateOrder(t *testing.T) {
	s := newTestServer(t)
	menus := itoa(s.menuIDs[0]) + "," + itoa(s.menuIDs[1])

	tests := []struct {
		name   string
		target string
		want   int
		kind   string
	}{
		{"comma_lists", s.createOrderURL(menus, "2,1"), http.StatusCreated, ""},
		{"repeated_keys", s.createOrderURL(itoa(s.menuIDs[0])+"&menuIds="+itoa(s.menuIDs[1]), "2&quantities=1"), http.StatusCreated, ""},
		{"length_mismatch", s.createOrderURL(menus, "1"), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown_menu", s.createOrderURL("999", "1"), http.StatusNotFound, "NOT_FOUND"},
		{"missing_user", "/api/orders/order/create?restaurantId=1&menuIds=1&quantities=1", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"non_numeric_quantity", s.createOrderURL(menus, "two,one"), http.StatusBadRequest, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tt.target, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.kind != "" && body["kind"] != tt.kind {
				t.Errorf("kind = %v, want %s", body["kind"], tt.kind)
			}
			if tt.want == http.StatusCreated {
				if body["grandTotalPrice"] != 70.75 || body["orderStatus"] != "PENDING" {
					t.Errorf("order = %v, want a PENDING order totalling 70.75", body)
				}
			}
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, s.createOrderURL(itoa(s.menuIDs[0]), "1"), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	id := itoa(int64(body["orderId"].(float64)))

	steps := []struct {
		name   string
		method string
		target string
		want   int
		kind   string
	}{
		{"get", http.MethodGet, "/api/orders/byOrderId/" + id, http.StatusOK, ""},
		{"get_unknown", http.MethodGet, "/api/orders/byOrderId/999", http.StatusNotFound, "NOT_FOUND"},
		{"bad_payment_flag", http.MethodPut, "/api/orders/order/updateStatus/" + id + "/maybe", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"cancel_pending", http.MethodPut, "/api/orders/order/cancel/" + id, http.StatusBadRequest, "INVALID_STATUS"},
		{"pay", http.MethodPut, "/api/orders/order/updateStatus/" + id + "/true", http.StatusOK, ""},
		{"pay_again", http.MethodPut, "/api/orders/order/updateStatus/" + id + "/false", http.StatusBadRequest, "INVALID_STATUS"},
		{"invoice", http.MethodPost, "/api/invoices/invoice/generate/" + id, http.StatusOK, ""},
		{"invoice_unknown_order", http.MethodPost, "/api/invoices/invoice/generate/999", http.StatusNotFound, "NOT_FOUND"},
		{"cancel_paid", http.MethodPut, "/api/orders/order/cancel/" + id, http.StatusOK, ""},
		{"by_user", http.MethodGet, "/api/orders/order/byUserId/" + itoa(s.userID), http.StatusOK, ""},
		{"by_user_without_orders", http.MethodGet, "/api/orders/order/byUserId/999", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, step := range steps {
		rec, body := s.do(t, step.method, step.target, "")
		if rec.Code != step.want {
			t.Fatalf("%s: status = %d, want %d (%s)", step.name, rec.Code, step.want, rec.Body.String())
		}
		if step.kind != "" && body["kind"] != step.kind {
			t.Errorf("%s: kind = %v, want %s", step.name, body["kind"], step.kind)
		}
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/users/user/login/asha_k/wrong1", "")
	if rec.Code != http.StatusUnauthorized || body["message"] != "Invalid username or password" {
		t.Fatalf("bad login = %d %v, want 401", rec.Code, body)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/users/user/login/asha_k/secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}
	token, ok := strings.CutPrefix(rec.Header().Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		t.Fatalf("Authorization header = %q, want a bearer token", rec.Header().Get("Authorization"))
	}

	rec, body = s.do(t, http.MethodGet, "/api/users/user/validate", token)
	if rec.Code != http.StatusOK || body["userId"] != float64(s.userID) {
		t.Errorf("validate = %d %v, want user %d", rec.Code, body, s.userID)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/users/user/validate", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("validate without token = %d, want 401", rec.Code)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t)

	var last int
	for i := 0; i < 6; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/users/user/login/asha_k/wrong1", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth login attempt = %d, want 429", last)
	}

	rec, _ := s.do(t, http.MethodGet, "/api/users/getAllUsers", "")
	if rec.Code != http.StatusOK {
		t.Errorf("unthrottled route = %d, want 200", rec.Code)
	}
}

func TestForwardedForRotationIsStillRateLimited(t *testing.T) {
	s := newTestServer(t)

	codes := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/user/login/asha_k/wrong1", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0."+itoa(int64(i)))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[5] != http.StatusTooManyRequests || codes[19] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want 429 from the sixth attempt on", codes)
	}
}

func TestLoginIsLoggedWithoutPassword(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/api/users/user/login/asha_k/secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}

	out := buf.String()
	if !strings.Contains(out, "/api/users/user/login/{username}/{password}") {
		t.Fatalf("request log has no route pattern: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("request log carries the password: %s", out)
	}
}

func TestUserListingAliases(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/users/getalluserswithmsg",
		"/api/users/messages/" + itoa(s.userID),
		"/api/messages/byUserId/" + itoa(s.userID),
	} {
		t.Run(strings.TrimPrefix(target, "/api/"), func(t *testing.T) {
			rec, _ := s.do(t, http.MethodGet, target, "")
			if rec.Code != http.StatusOK {
				t.Errorf("GET %s = %d %s", target, rec.Code, rec.Body.String())
			}
			if !strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "[") {
				t.Errorf("GET %s body = %s, want a JSON list", target, rec.Body.String())
			}
		})
	}

	rec, _ := s.do(t, http.MethodGet, "/api/users/messages/999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("messages of unknown user = %d, want 404", rec.Code)
	}
}

func TestMenusByRestaurantName(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/menus/menu/byRestaurantName/Spice%20Route", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var menus []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &menus); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	if rec.Code != http.StatusOK || len(menus) != 2 {
		t.Errorf("menus = %d %v, want both dishes", rec.Code, menus)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/menus/menu/byRestaurantName/Nowhere", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown restaurant = %d, want 404", rec.Code)
	}
}
