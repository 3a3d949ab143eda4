package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"lifelessons/backend/access"
	"lifelessons/backend/config"
	"lifelessons/backend/entitlement"
	"lifelessons/backend/identity"
	"lifelessons/backend/models"
	"lifelessons/backend/payment"
	"lifelessons/backend/routes"
	"lifelessons/backend/store"
	"lifelessons/backend/store/storetest"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	testJWTSecret     = "testsecret"
	testWebhookSecret = "whsec_test"
	adminEmail        = "admin@example.com"
)

type fakeCheckout struct {
	mu       sync.Mutex
	requests []payment.CheckoutRequest
}

func (f *fakeCheckout) CreateSession(_ context.Context, req payment.CheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return "https://checkout.stripe.test/c/pay/cs_test_" + strconv.Itoa(len(f.requests)), nil
}

type testEnv struct {
	app      *fiber.App
	store    *store.Store
	tokens   *identity.JWTVerifier
	checkout *fakeCheckout
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		ClientURL:           "http://localhost:5173",
		AuthMode:            config.AuthModeLocal,
		JWTSecret:           testJWTSecret,
		AdminEmails:         []string{adminEmail},
		StripeWebhookSecret: testWebhookSecret,
		PremiumPriceCents:   1500,
		PremiumCurrency:     "usd",
	}

	logger := zap.NewNop()
	s := store.New(storetest.Open(t))
	registry := prometheus.NewRegistry()
	metrics := utils.NewMetrics(registry)
	verifier := identity.NewJWTVerifier(cfg.JWTSecret)
	checkout := &fakeCheckout{}

	app := routes.NewApp(routes.Deps{
		Config:       cfg,
		Store:        s,
		Verifier:     verifier,
		Identifier:   access.NewIdentifier(s.Users, cfg.AdminEmails, logger),
		Checkout:     checkout,
		Entitlements: entitlement.NewHandler(s.Users, s.Payments, metrics, logger),
		Metrics:      metrics,
		Gatherer:     registry,
		Logger:       logger,
	})

	return &testEnv{app: app, store: s, tokens: verifier, checkout: checkout}
}

func (e *testEnv) token(t *testing.T, uid, email string) string {
	t.Helper()
	token, err := e.tokens.IssueToken(identity.Claims{Subject: uid, Email: email, DisplayName: uid})
	require.NoError(t, err)
	return token
}

// login issues a token and makes one authenticated call so the account exists.
func (e *testEnv) login(t *testing.T, uid, email string) (string, *models.User) {
	t.Helper()
	token := e.token(t, uid, email)
	resp, _ := e.do(t, http.MethodPost, "/api/users/sync", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	user, err := e.store.Users.FindByUID(context.Background(), uid)
	require.NoError(t, err)
	return token, user
}

func (e *testEnv) makePremium(t *testing.T, user *models.User) {
	t.Helper()
	_, err := e.store.Users.MarkPremium(context.Background(), user.ID)
	require.NoError(t, err)
}

type envelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    json.RawMessage   `json:"meta"`
	Details map[string]string `json:"details"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func (e *testEnv) webhook(t *testing.T, payload []byte, secret string) (*http.Response, map[string]interface{}) {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func paidSessionEvent(eventID string, userID uint, uid string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test",
			"object": "checkout.session",
			"payment_status": "paid",
			"metadata": {"userId": %q, "uid": %q}
		}}
	}`, eventID, strconv.FormatUint(uint64(userID), 10), uid))
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func lessonBody(title, tier, visibility string) map[string]interface{} {
	return map[string]interface{}{
		"title":            title,
		"shortDescription": "What I learned",
		"description":      "The long story of " + title,
		"category":         "Career",
		"emotionalTone":    "Realization",
		"imageURL":         "https://img.example.com/" + strconv.Itoa(len(title)) + ".png",
		"visibility":       visibility,
		"accessLevel":      tier,
	}
}

func (e *testEnv) createLesson(t *testing.T, token, title, tier, visibility string) access.LessonView {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/api/lessons", token, lessonBody(title, tier, visibility))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
	return decode[access.LessonView](t, env.Data)
}
