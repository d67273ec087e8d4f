package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"practice-journal-api/internal/billing"
	"practice-journal-api/internal/config"
	"practice-journal-api/internal/database"
	"practice-journal-api/internal/database/dbtest"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const webhookSecret = "whsec_api_test"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeSender struct {
	mu   sync.Mutex
	sent []services.Message
}

func (s *fakeSender) Send(_ context.Context, msg services.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) last() services.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return services.Message{}
	}
	return s.sent[len(s.sent)-1]
}

type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (s *fakeStorage) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (s *fakeStorage) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeProcessor struct {
	subscriptionID string
	sessionErr     error
	checkoutEmail  string
}

func (p *fakeProcessor) CreateCheckoutSession(_ context.Context, email string, _ uint) (string, error) {
	p.checkoutEmail = email
	return "cs_test_123", nil
}

func (p *fakeProcessor) SessionSubscription(_ context.Context, _ string) (string, error) {
	if p.sessionErr != nil {
		return "", p.sessionErr
	}
	return p.subscriptionID, nil
}

func (p *fakeProcessor) CreatePortalSession(_ context.Context, subscriptionID string) (string, error) {
	return "https://billing.test/portal/" + subscriptionID, nil
}

type testServer struct {
	router    *gin.Engine
	handler   *Handler
	mail      *fakeSender
	storage   *fakeStorage
	processor *fakeProcessor
	redis     *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.New(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		FrontendURL:          "http://frontend.test",
		ConfirmationTokenTTL: time.Hour,
		PasswordResetTTL:     time.Hour,
		ResendRateLimit:      time.Minute,
		ServiceName:          "Jam Jar",
		Auth: config.Auth{
			JWTSecret:       "api-test-secret-0123456789",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	tokens, err := services.NewTokenService(cfg.Auth)
	require.NoError(t, err)

	users := database.NewUserStore(db)
	practice := database.NewPracticeStore(db)
	mail := &fakeSender{}
	storage := &fakeStorage{}
	processor := &fakeProcessor{subscriptionID: "sub_confirmed"}
	events := billing.NewMemoryEventLog(time.Hour, database.NewWebhookEventStore(db))
	t.Cleanup(events.Stop)

	h := NewHandler(Deps{
		Config:       cfg,
		Users:        users,
		Practice:     practice,
		Goals:        database.NewGoalStore(db),
		Diary:        database.NewDiaryStore(db),
		Recordings:   database.NewRecordingStore(db),
		Tokens:       tokens,
		Passwords:    services.NewPasswordServiceWithCost(bcrypt.MinCost),
		EmailTokens:  services.NewTokenStore(client),
		Email:        services.NewEmailService(mail, database.NewNotificationStore(db), cfg.FrontendURL, cfg.ServiceName),
		Storage:      storage,
		Achievements: services.NewAchievementService(practice),
		Verifier:     billing.NewVerifier(webhookSecret, 5*time.Minute),
		Reconciler:   billing.NewReconciler(users, events),
		Processor:    processor,
	})

	r := gin.New()
	h.SetupRoutes(r)

	return &testServer{router: r, handler: h, mail: mail, storage: storage, processor: processor, redis: mr}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// createUser stores a user with password "password123" and returns an access token.
func (s *testServer) createUser(t *testing.T, username string, teacher bool) (*models.User, string) {
	t.Helper()
	hash, err := s.handler.Passwords.Hash("password123")
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		IsTeacher:    teacher,
	}
	require.NoError(t, s.handler.Users.Create(context.Background(), user))

	pair, err := s.handler.Tokens.IssuePair(user.ID)
	require.NoError(t, err)
	return user, pair.Access
}

func (s *testServer) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	user, err := s.handler.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}
