package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/storefront-api/internal/config"
	jwtinfra "github.com/storefront-api/internal/infrastructure/jwt"
	"github.com/storefront-api/internal/infrastructure/memory"
	"github.com/storefront-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct{ to, subject, body string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}

func (n *recordingNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type server struct {
	t        *testing.T
	h        http.Handler
	notifier *recordingNotifier
	users    *memory.UserRepo
}

func newServer(t *testing.T) *server {
	t.Helper()
	adminHash, err := password.Hash("Adm1n!pass")
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:               "0123456789abcdef0123456789abcdef",
		JWTExpiry:               time.Hour,
		ClientURL:               "https://shop.test",
		AdminEmail:              "admin@shop.test",
		AdminPasswordHash:       adminHash,
		ResetTokenTTL:           time.Hour,
		VerificationTokenTTL:    time.Hour,
		VerificationCodeTTL:     10 * time.Minute,
		PasswordChangeMinLength: 8,
		PasswordResetMinLength:  8,
		AllowedOrigins:          []string{"*"},
		RateLimitRPS:            1000,
		RateLimitBurst:          1000,
	}
	provider, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := &server{t: t, notifier: &recordingNotifier{}, users: memory.NewUserRepo()}
	s.h = NewRouter(ctx, cfg, &Deps{
		UserRepo:    s.users,
		ProductRepo: memory.NewProductRepo(),
		OrderRepo:   memory.NewOrderRepo(),
		Images:      memory.NewImageStore(),
		Notifier:    s.notifier,
		JWTProvider: provider,
	})
	return s
}

func (s *server) do(method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.h.ServeHTTP(rr, req)
	out := map[string]interface{}{}
	require.NoError(s.t, json.NewDecoder(rr.Body).Decode(&out), rr.Body.String())
	return rr.Code, out
}

var resetLink = regexp.MustCompile(`/reset-password/([0-9a-f]{40})`)

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, body := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
}

func TestRegisterTwice(t *testing.T) {
	s := newServer(t)
	creds := map[string]string{"name": "Alice", "email": "alice@x.com", "password": "Password1!"}

	code, body := s.do(http.MethodPost, "/api/user/register", creds)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, 1, s.notifier.count())
	assert.Contains(t, s.notifier.last().body, "https://shop.test/verify-email/")

	code, body = s.do(http.MethodPost, "/api/user/register", creds)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User already exists", body["message"])
}

func TestPasswordResetFlow(t *testing.T) {
	s := newServer(t)
	code, _ := s.do(http.MethodPost, "/api/user/register",
		map[string]string{"name": "Alice", "email": "alice@x.com", "password": "Password1!"})
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(http.MethodPost, "/api/user/forgot-password", map[string]string{"email": "bob@x.com"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])

	code, _ = s.do(http.MethodPost, "/api/user/forgot-password", map[string]string{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, code)
	mail := s.notifier.last()
	assert.Equal(t, "Password Reset Request", mail.subject)
	m := resetLink.FindStringSubmatch(mail.body)
	require.Len(t, m, 2)
	tok := m[1]

	u, err := s.users.GetByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.NotNil(t, u.VerificationToken)
	assert.Equal(t, tok, *u.VerificationToken)

	code, body = s.do(http.MethodPut, "/api/user/reset-password/"+tok, map[string]string{"newPassword": "weak"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "uppercase")

	code, body = s.do(http.MethodPut, "/api/user/reset-password/"+tok, map[string]string{"newPassword": "NewPassw0rd"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Password has been reset successfully", body["message"])

	code, body = s.do(http.MethodPut, "/api/user/reset-password/"+tok, map[string]string{"newPassword": "NewPassw0rd2"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired token", body["message"])

	code, body = s.do(http.MethodPost, "/api/user/login", map[string]string{"email": "alice@x.com", "password": "NewPassw0rd"})
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])
}

func TestChangePassword_RequiresBearer(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPut, "/api/user/change-password", map[string]string{"oldPassword": "a", "newPassword": "b"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "missing_credential", body["code"])

	code, body = s.do(http.MethodPut, "/api/user/change-password", map[string]string{"oldPassword": "a", "newPassword": "b"},
		"Authorization", "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid_credential", body["code"])
}

func TestChangePassword_WithBearer(t *testing.T) {
	s := newServer(t)
	_, body := s.do(http.MethodPost, "/api/user/register",
		map[string]string{"name": "Alice", "email": "alice@x.com", "password": "Password1!"})
	bearer := body["token"].(string)

	code, body := s.do(http.MethodPut, "/api/user/change-password",
		map[string]string{"oldPassword": "Password1!", "newPassword": "Password1!"}, "Authorization", "Bearer "+bearer)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New password cannot be the same as old password", body["message"])

	code, body = s.do(http.MethodPut, "/api/user/change-password",
		map[string]string{"oldPassword": "Password1!", "newPassword": "Brand-new1!"}, "Authorization", "Bearer "+bearer)
	assert.Equal(t, http.StatusBadRequest, code, "hyphen is outside the allowed charset")

	code, body = s.do(http.MethodPut, "/api/user/change-password",
		map[string]string{"oldPassword": "Password1!", "newPassword": "Brandnew1!"}, "Authorization", "Bearer "+bearer)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Password updated successfully", body["message"])
}

func TestAdminUserManagement(t *testing.T) {
	s := newServer(t)
	_, body := s.do(http.MethodPost, "/api/user/register",
		map[string]string{"name": "Alice", "email": "alice@x.com", "password": "Password1!"})
	aliceBearer := body["token"].(string)

	code, _ := s.do(http.MethodPost, "/api/user/admin", map[string]string{"email": "admin@shop.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body = s.do(http.MethodPost, "/api/user/admin", map[string]string{"email": "admin@shop.test", "password": "Adm1n!pass"})
	require.Equal(t, http.StatusOK, code)
	adminTok := body["token"].(string)

	code, _ = s.do(http.MethodGet, "/api/user/users", nil, "Authorization", "Bearer "+aliceBearer)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodGet, "/api/user/users", nil, "token", adminTok)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]interface{})
	require.Len(t, users, 1)
	alice := users[0].(map[string]interface{})
	assert.NotContains(t, alice, "password_hash")
	id := alice["id"].(string)

	code, body = s.do(http.MethodPut, "/api/user/update/"+id, map[string]string{"name": "Alicia"}, "token", adminTok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alicia", body["user"].(map[string]interface{})["name"])

	code, _ = s.do(http.MethodDelete, "/api/user/delete/"+id, nil, "token", adminTok)
	assert.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodDelete, "/api/user/delete/"+id, nil, "token", adminTok)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])

	// the deleted user's credential no longer resolves
	code, _ = s.do(http.MethodPost, "/api/order/userorders", nil, "Authorization", "Bearer "+aliceBearer)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOrders(t *testing.T) {
	s := newServer(t)
	_, body := s.do(http.MethodPost, "/api/user/register",
		map[string]string{"name": "Alice", "email": "alice@x.com", "password": "Password1!"})
	bearer := body["token"].(string)
	_, body = s.do(http.MethodPost, "/api/user/admin", map[string]string{"email": "admin@shop.test", "password": "Adm1n!pass"})
	adminTok := body["token"].(string)

	order := map[string]interface{}{
		"items":  []map[string]interface{}{{"_id": "p1", "name": "Tee", "price": 20, "quantity": 1, "size": "M"}},
		"amount": 30,
		"address": map[string]string{
			"firstName": "Alice", "lastName": "Smith", "street": "1 Main", "city": "X", "country": "US", "phone": "1",
		},
	}
	code, body := s.do(http.MethodPost, "/api/order/place", order, "Authorization", "Bearer "+bearer)
	require.Equal(t, http.StatusCreated, code)
	orderID := body["order"].(map[string]interface{})["_id"].(string)

	code, body = s.do(http.MethodPost, "/api/order/userorders", nil, "Authorization", "Bearer "+bearer)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["orders"], 1)

	code, _ = s.do(http.MethodPost, "/api/order/list", nil, "Authorization", "Bearer "+bearer)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/order/status", map[string]string{"orderId": orderID, "status": "Shipped"}, "token", adminTok)
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodPost, "/api/order/list", nil, "token", adminTok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Shipped", body["orders"].([]interface{})[0].(map[string]interface{})["status"])
}
