package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/models"
	"github.com/cppla/keepsake/testutil"
)

const testCatalog = `
photos:
  - id: p1
  - id: p2
messages:
  - id: m1
minigames:
  - id: g1
specialDays:
  - "02-14"
`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	lib, err := content.Parse([]byte(testCatalog))
	require.NoError(t, err)

	cfg := config.AppConfig{
		SessionSecret:           "test-secret",
		SessionCookieName:       "keepsake_session",
		SessionTTLHours:         24,
		AdminSecret:             "admin-pass",
		AdminRateLimitPerMinute: 600,
		AllowedOrigins:          []string{"https://app.example.com"},
		DefaultLocale:           "en",
		DBDriver:                "sqlite",
		GinMode:                 "test",
	}
	db := testutil.OpenDB(t)
	engine := SetupRouter(Deps{Config: cfg, DB: db, Library: lib})
	return &testServer{t: t, engine: engine, db: db}
}

func (s *testServer) do(method, path string, body any, cookie *http.Cookie, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) provision(code string) {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/api/v1/admin/codes", gin.H{"code": code, "adminSecret": "admin-pass"}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (s *testServer) login(code string) *http.Cookie {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/api/v1/gate", gin.H{"code": code}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "keepsake_session" {
			return c
		}
	}
	s.t.Fatal("session cookie not set")
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestGate_Check(t *testing.T) {
	s := newTestServer(t)
	s.provision("sunflower")

	rec, env := s.do(http.MethodPost, "/api/v1/gate", gin.H{"code": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotZero(t, env.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/gate", gin.H{"code": "wrongcode"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid code", env.Message)
	assert.Empty(t, rec.Result().Cookies())

	rec, env = s.do(http.MethodPost, "/api/v1/gate", gin.H{"code": " SunFlower "}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, string(env.Data))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "keepsake_session", c.Name)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.Equal(t, 24*3600, c.MaxAge)
}

func TestGate_LocalizedMessage(t *testing.T) {
	s := newTestServer(t)
	_, env := s.do(http.MethodPost, "/api/v1/gate", gin.H{"code": "wrongcode"}, nil, "Accept-Language", "zh-CN,zh;q=0.9")
	assert.Equal(t, "访问码无效", env.Message)
}

func TestSessionAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.provision("sunflower")

	_, env := s.do(http.MethodGet, "/api/v1/session", nil, nil)
	assert.JSONEq(t, `{"loggedIn":false}`, string(env.Data))

	cookie := s.login("sunflower")
	_, env = s.do(http.MethodGet, "/api/v1/session", nil, cookie)
	assert.JSONEq(t, `{"loggedIn":true}`, string(env.Data))

	rec, _ := s.do(http.MethodPost, "/api/v1/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)

	_, env = s.do(http.MethodGet, "/api/v1/session", nil, cookie)
	assert.JSONEq(t, `{"loggedIn":false}`, string(env.Data))
	rec, _ = s.do(http.MethodGet, "/api/v1/state", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestState_RemovedCodeLosesAccess(t *testing.T) {
	s := newTestServer(t)
	s.provision("sunflower")
	cookie := s.login("sunflower")

	rec, _ := s.do(http.MethodGet, "/api/v1/state", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.db.Delete(&models.AccessRecord{}, "code = ?", "sunflower").Error)

	rec, _ = s.do(http.MethodGet, "/api/v1/state", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/state", `{"streak": 1}`, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, env := s.do(http.MethodGet, "/api/v1/session", nil, cookie)
	assert.JSONEq(t, `{"loggedIn":false}`, string(env.Data))
}

func TestBearerTokenAccepted(t *testing.T) {
	s := newTestServer(t)
	s.provision("sunflower")
	cookie := s.login("sunflower")

	rec, _ := s.do(http.MethodGet, "/api/v1/state", nil, nil, "Authorization", "Bearer "+cookie.Value)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminProvision(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodPost, "/api/v1/admin/codes", gin.H{"code": "sunflower", "adminSecret": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/admin/codes", gin.H{"code": "abc", "adminSecret": "admin-pass"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(http.MethodPost, "/api/v1/admin/codes", gin.H{"code": "Sunflower", "adminSecret": "admin-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "sunflower", data.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/admin/codes", gin.H{"code": "SUNFLOWER", "adminSecret": "admin-pass"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestState_RequiresSession(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/state"},
		{http.MethodPost, "/api/v1/state"},
		{http.MethodPost, "/api/v1/state/visit"},
	} {
		rec, env := s.do(tc.method, tc.path, `{}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.Equal(t, 40101, env.Code, tc.path)
	}
}

func TestState_GetMergeVisit(t *testing.T) {
	s := newTestServer(t)
	s.provision("sunflower")
	cookie := s.login("sunflower")

	rec, env := s.do(http.MethodGet, "/api/v1/state", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.EqualValues(t, 0, st["streak"])
	assert.Equal(t, []any{}, st["collectedBadges"])
	assert.Nil(t, st["lastStreakUpdateDate"])

	rec, env = s.do(http.MethodPost, "/api/v1/state", `{"streakFreezes": 2, "moodReactions": {"2025-03-01": "<b>happy</b>"}, "collectedBadges": ["b1", "b1"]}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.EqualValues(t, 2, st["streakFreezes"])
	assert.Equal(t, map[string]any{"2025-03-01": "happy"}, st["moodReactions"])
	assert.Equal(t, []any{"b1"}, st["collectedBadges"])

	rec, _ = s.do(http.MethodPost, "/api/v1/state", `{"streak": "three"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/state", `{"streak": -3}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/state/visit", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.EqualValues(t, 1, st["streak"])
	assert.EqualValues(t, 1, st["totalVisits"])
	daily, ok := st["dailyContent"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, daily["date"])
	assert.Equal(t, "m1", daily["messageId"])
	assert.Equal(t, "g1", daily["minigameId"])

	rec, env = s.do(http.MethodPost, "/api/v1/state/visit", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var again map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, st, again)
}

func TestContentPools(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/api/v1/content/pools", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Sizes map[string]int `json:"sizes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, map[string]int{"photos": 2, "messages": 1, "minigames": 1}, data.Sizes)
}

func TestPreflightAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodOptions, "/api/v1/state", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec, _ = s.do(http.MethodOptions, "/api/v1/gate", nil, nil,
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec, _ = s.do(http.MethodGet, "/health", nil, nil, "Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(http.MethodGet, "/api/v1/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.example"}, allowedOrigins([]string{" https://a.example/ ", "*", ""}))
	assert.Empty(t, allowedOrigins(nil))
}
