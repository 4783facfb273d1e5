package dashboard_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/signaldesk/signaldesk-server/cmd/api"
	"github.com/signaldesk/signaldesk-server/cmd/models"
	"github.com/signaldesk/signaldesk-server/cmd/utils"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Signal{}, &models.Subscription{}))

	cfg := &utils.Config{
		JWTSecret:          "test-secret",
		JWTAlgorithm:       "HS256",
		TokenExpiryMinutes: 60,
		LLMBaseURL:         "http://127.0.0.1:1",
		LLMTimeoutSeconds:  1,
	}
	return api.NewApiServer(":0", gdb, cfg).Router(), gdb
}

func registerUser(t *testing.T, router http.Handler) (string, string) {
	t.Helper()

	rec := doJSON(router, http.MethodPost, "/api/auth/register", "",
		`{"email":"stats@example.com","password":"secret123","name":"Stats"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		AccessToken string `json:"access_token"`
		User        struct {
			UserID string `json:"user_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response.AccessToken, response.User.UserID
}

func doJSON(router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedSignal(t *testing.T, gdb *gorm.DB, userID, status string, confidence int, createdAt time.Time) {
	t.Helper()
	sig := models.Signal{
		SignalID:   fmt.Sprintf("sig-%s-%d", status, createdAt.UnixNano()),
		UserID:     userID,
		Asset:      "BTCUSDT",
		Direction:  "BUY",
		Confidence: confidence,
		Status:     status,
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(8 * time.Hour),
	}
	require.NoError(t, gdb.Create(&sig).Error)
}

type performanceResponse struct {
	TotalSignals  int64   `json:"total_signals"`
	WinRate       float64 `json:"win_rate"`
	ActiveSignals int64   `json:"active_signals"`
	HitTP         int64   `json:"hit_tp"`
	StoppedOut    int64   `json:"stopped_out"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func TestPerformanceEmpty(t *testing.T) {
	router, _ := newTestServer(t)
	token, _ := registerUser(t, router)

	rec := doJSON(router, http.MethodGet, "/api/performance", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats performanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalSignals)
	assert.Zero(t, stats.WinRate)
	assert.Zero(t, stats.ActiveSignals)
	assert.Zero(t, stats.HitTP)
	assert.Zero(t, stats.StoppedOut)
	assert.Zero(t, stats.AvgConfidence)
}

func TestPerformanceWinRate(t *testing.T) {
	router, gdb := newTestServer(t)
	token, userID := registerUser(t, router)

	base := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	seedSignal(t, gdb, userID, "hit_tp", 80, base)
	seedSignal(t, gdb, userID, "hit_tp", 90, base.Add(time.Minute))
	seedSignal(t, gdb, userID, "stopped_out", 70, base.Add(2*time.Minute))
	seedSignal(t, gdb, userID, "active", 80, base.Add(3*time.Minute))

	rec := doJSON(router, http.MethodGet, "/api/performance", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats performanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 4, stats.TotalSignals)
	assert.EqualValues(t, 2, stats.HitTP)
	assert.EqualValues(t, 1, stats.StoppedOut)
	assert.EqualValues(t, 1, stats.ActiveSignals)
	assert.Equal(t, 66.7, stats.WinRate)
	assert.Equal(t, 80.0, stats.AvgConfidence)
}

func TestDashboard(t *testing.T) {
	router, gdb := newTestServer(t)
	token, userID := registerUser(t, router)

	t.Run("no signals yet", func(t *testing.T) {
		rec := doJSON(router, http.MethodGet, "/api/dashboard", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Subscription struct {
				Plan string `json:"plan"`
			} `json:"subscription"`
			ActiveSignals int64            `json:"active_signals"`
			TotalSignals  int64            `json:"total_signals"`
			AIConfidence  float64          `json:"ai_confidence"`
			RecentSignals []models.Signal  `json:"recent_signals"`
			LastSignalAt  *time.Time       `json:"last_signal_at"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "premium_trial", payload.Subscription.Plan)
		assert.Zero(t, payload.TotalSignals)
		assert.Empty(t, payload.RecentSignals)
		assert.Nil(t, payload.LastSignalAt)
	})

	t.Run("with signals", func(t *testing.T) {
		base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		for i := 0; i < 7; i++ {
			seedSignal(t, gdb, userID, "active", 75, base.Add(time.Duration(i)*time.Minute))
		}
		newest := base.Add(6 * time.Minute)

		rec := doJSON(router, http.MethodGet, "/api/dashboard", token, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			ActiveSignals int64           `json:"active_signals"`
			TotalSignals  int64           `json:"total_signals"`
			AIConfidence  float64         `json:"ai_confidence"`
			RecentSignals []models.Signal `json:"recent_signals"`
			LastSignalAt  *time.Time      `json:"last_signal_at"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.EqualValues(t, 7, payload.ActiveSignals)
		assert.EqualValues(t, 7, payload.TotalSignals)
		assert.Equal(t, 75.0, payload.AIConfidence)
		assert.Len(t, payload.RecentSignals, 5)
		require.NotNil(t, payload.LastSignalAt)
		assert.True(t, payload.LastSignalAt.Equal(newest))
	})
}
