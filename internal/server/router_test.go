package server_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/app"
	"github.com/emberapp/discovery/internal/cache"
	"github.com/emberapp/discovery/internal/config"
	"github.com/emberapp/discovery/internal/db"
	"github.com/emberapp/discovery/internal/notify"
	"github.com/emberapp/discovery/internal/server"
	"github.com/emberapp/discovery/internal/service/discovery"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Discovery.CandidateCacheTTLSec = 0

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), logger, cfg)
	svc := discovery.NewService(appCtx, notify.NewLogNotifier(logger))

	return server.NewRouter(appCtx, svc), gdb, cfg
}

func seedUser(t *testing.T, gdb *gorm.DB, id uint64, gender string) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Profile{
		ID:          id,
		DisplayName: fmt.Sprintf("user%d", id),
		BirthDate:   time.Now().UTC().AddDate(-25, 0, 0),
		Gender:      gender,
		Geohash:     "gcpvj0du6", // central London
		Visible:     true,
	}).Error)
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBadUserID(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(router, http.MethodGet, "/v1/users/abc/candidates", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/v1/users/0/candidates", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(router, http.MethodGet, "/v1/users/42/candidates", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCandidatesEndpoint(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")
	seedUser(t, gdb, 2, "male")

	rec := do(router, http.MethodGet, "/v1/users/1/candidates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Candidates []struct {
			UserID uint64 `json:"user_id"`
			Score  int    `json:"score"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Candidates, 1)
	assert.Equal(t, uint64(2), body.Candidates[0].UserID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPostSwipe(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")
	seedUser(t, gdb, 2, "male")

	rec := do(router, http.MethodPost, "/v1/users/1/swipes", `{"target_id":2,"type":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		Matched bool   `json:"matched"`
		MatchID string `json:"match_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.False(t, first.Matched)

	rec = do(router, http.MethodPost, "/v1/users/2/swipes", `{"target_id":1,"type":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		Matched bool   `json:"matched"`
		MatchID string `json:"match_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Matched)
	assert.Equal(t, "1-2", second.MatchID)
}

func TestPostSwipeValidation(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")
	seedUser(t, gdb, 2, "male")

	rec := do(router, http.MethodPost, "/v1/users/1/swipes", `{"target_id":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/v1/users/1/swipes", `{"target_id":2,"type":"wink"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/v1/users/1/swipes", `{"target_id":1,"type":"like"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostSwipeQuotaExceeded(t *testing.T) {
	router, gdb, cfg := setupRouter(t)
	seedUser(t, gdb, 1, "female")
	for id := uint64(2); id <= uint64(cfg.Quota.SuperlikeDailyLimit)+2; id++ {
		seedUser(t, gdb, id, "male")
	}

	var rec *httptest.ResponseRecorder
	for id := uint64(2); id <= uint64(cfg.Quota.SuperlikeDailyLimit)+1; id++ {
		rec = do(router, http.MethodPost, "/v1/users/1/swipes",
			fmt.Sprintf(`{"target_id":%d,"type":"superlike"}`, id))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	over := uint64(cfg.Quota.SuperlikeDailyLimit) + 2
	rec = do(router, http.MethodPost, "/v1/users/1/swipes",
		fmt.Sprintf(`{"target_id":%d,"type":"superlike"}`, over))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Error    string `json:"error"`
		ResetsAt string `json:"resets_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ResetsAt)

	resetsAt, err := time.Parse(time.RFC3339, body.ResetsAt)
	require.NoError(t, err)
	assert.True(t, resetsAt.After(time.Now().UTC()))
}

func TestPreferencesRoundTrip(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")

	rec := do(router, http.MethodPut, "/v1/users/1/preferences",
		`{"min_age":21,"max_age":35,"max_distance_km":25,"preferred_gender":"male"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodGet, "/v1/users/1/preferences", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		MinAge          int     `json:"min_age"`
		MaxAge          int     `json:"max_age"`
		MaxDistanceKM   float64 `json:"max_distance_km"`
		PreferredGender string  `json:"preferred_gender"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 21, body.MinAge)
	assert.Equal(t, 35, body.MaxAge)
	assert.Equal(t, float64(25), body.MaxDistanceKM)
	assert.Equal(t, "male", body.PreferredGender)
}

func TestPutPreferencesInvalidRange(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")

	rec := do(router, http.MethodPut, "/v1/users/1/preferences",
		`{"min_age":40,"max_age":20,"max_distance_km":25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLikedByRejectsGarbageToken(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")

	rec := do(router, http.MethodGet, "/v1/users/1/liked-by?token=%21%21not-base64", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "token")
}

func TestLikedByCountEndpoint(t *testing.T) {
	router, gdb, _ := setupRouter(t)
	seedUser(t, gdb, 1, "female")
	seedUser(t, gdb, 2, "male")

	rec := do(router, http.MethodPost, "/v1/users/2/swipes", `{"target_id":1,"type":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/v1/users/1/liked-by/count", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.Count)
}
