package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/stadium-booking/internal/config"
	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/model"
	"github.com/iliyamo/stadium-booking/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/owner", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, echo.Map{"user_id": id.UserID})
	}, JWTAuth(testSecret), RequireRole(model.RoleStadiumOwner))

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", bearer(t, 7, model.RolePlayer), http.StatusForbidden},
		{"owner", bearer(t, 7, model.RoleStadiumOwner), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/owner", nil)
			if tc.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, model.RolePlayer, 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := testCacheConfig()
	e := echo.New()
	e.GET("/v1/stadiums", func(c echo.Context) error {
		t.Fatal("handler must not run on a cache hit")
		return nil
	}, NewRedisCache(cfg, rdb))

	req := httptest.NewRequest(http.MethodGet, "/v1/stadiums?q=arena", nil)
	key := cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"cached":true}`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"cached":true}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissStoresResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := testCacheConfig()
	e := echo.New()
	e.GET("/v1/teams", func(c echo.Context) error {
		return c.String(http.StatusOK, "fresh")
	}, NewRedisCache(cfg, rdb))

	req := httptest.NewRequest(http.MethodGet, "/v1/teams", nil)
	key := cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {echo.MIMETextPlainCharsetUTF8}}, []byte("fresh"))
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, payload, cfg.TTL).SetVal("OK")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheUsesRouteTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := testCacheConfig()
	cfg.RouteTTL = map[string]time.Duration{
		config.RouteStadiumSlots: 5 * time.Second,
		config.RouteTeams:        0,
	}
	e := echo.New()
	e.GET(config.RouteStadiumSlots, func(c echo.Context) error {
		return c.String(http.StatusOK, "day")
	}, NewRedisCache(cfg, rdb))
	e.GET(config.RouteTeams, func(c echo.Context) error {
		return c.String(http.StatusOK, "teams")
	}, NewRedisCache(cfg, rdb))

	req := httptest.NewRequest(http.MethodGet, "/v1/stadiums/3/slots?date=2024-03-01", nil)
	key := cacheKeyFrom(cfg, e.NewContext(req, httptest.NewRecorder()))
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {echo.MIMETextPlainCharsetUTF8}}, []byte("day"))
	require.NoError(t, err)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, payload, 5*time.Second).SetVal("OK")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	// Zero TTL: no Redis traffic at all.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams", nil))
	assert.Equal(t, "teams", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeyIncludesPathAndQuery(t *testing.T) {
	cfg := testCacheConfig()
	e := echo.New()
	key := func(target string) string {
		return cacheKeyFrom(cfg, e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
	}
	assert.NotEqual(t, key("/v1/stadiums/1"), key("/v1/stadiums/2"))
	assert.NotEqual(t, key("/v1/stadiums/1/slots?date=2024-03-01"), key("/v1/stadiums/1/slots?date=2024-03-02"))
	assert.Equal(t, key("/v1/teams?q=a"), key("/v1/teams?q=a"))
}

func TestPayloadRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 1})
	assert.False(t, ok)

	payload, err := encodePayload(http.StatusAccepted, nil, []byte("x"))
	require.NoError(t, err)
	status, _, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, []byte("x"), body)
}

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func fixClock(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock = func() time.Time { return now }
	t.Cleanup(func() { clock = time.Now })
	return now
}

func TestTokenBucket(t *testing.T) {
	now := fixClock(t)
	cfg := testRateConfig()

	cases := []struct {
		name      string
		result    []any
		err       error
		status    int
		remaining string
		retry     string
	}{
		{name: "allowed", result: []any{int64(1), int64(4), int64(0)}, status: http.StatusOK, remaining: "4"},
		{name: "blocked", result: []any{int64(0), int64(0), int64(1500)}, status: http.StatusTooManyRequests, remaining: "0", retry: "2"},
		{name: "redis down", err: errors.New("connection refused"), status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rdb, mock := redismock.NewClientMock()
			exp := mock.ExpectEvalSha(tokenBucket.Hash(), []string{"rl:ip:192.0.2.1"}, bucketArgs(cfg, now)...)
			if tc.err != nil {
				exp.SetErr(tc.err)
			} else {
				exp.SetVal(tc.result)
			}

			e := echo.New()
			e.GET("/v1/stadiums", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stadiums", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.remaining, rec.Header().Get("X-RateLimit-Remaining"))
			assert.Equal(t, tc.retry, rec.Header().Get("Retry-After"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRateKeyUsesIdentity(t *testing.T) {
	cfg := testRateConfig()
	cfg.KeyStrategy = "user_route"
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/bookings", nil), httptest.NewRecorder())
	c.SetPath("/v1/bookings")
	assert.Equal(t, "rl:user:anon:route:POST /v1/bookings", buildRateKey(cfg, c))

	c.Set(identityKey, model.Identity{UserID: 42, Role: model.RolePlayer})
	assert.Equal(t, "rl:user:42:route:POST /v1/bookings", buildRateKey(cfg, c))
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewRedisCache(config.CacheConfig{}, nil), NewTokenBucket(config.RateLimitConfig{}, nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logging.FromZap(zap.New(core))

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/v1/stadiums/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stadiums/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/v1/stadiums/:id", fields["route"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
