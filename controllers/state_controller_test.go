package controllers

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/engagement"
	"github.com/cppla/keepsake/middleware"
	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/testutil"
)

func TestSanitizePatch(t *testing.T) {
	var p engagement.Patch
	require.NoError(t, json.Unmarshal([]byte(`{
		"moodReactions": {"2025-03-01": "<i>calm</i>", "<img src=x onerror=alert(1)>2025-03-02": "ok"},
		"collectedBadges": ["<b>gold</b>"],
		"collectedTickets": ["t1"]
	}`), &p))

	sanitizePatch(&p)
	assert.Equal(t, map[string]string{"2025-03-01": "calm", "2025-03-02": "ok"}, p.MoodReactions.Value)
	assert.Equal(t, []string{"gold"}, p.CollectedBadges.Value)
	assert.Equal(t, []string{"t1"}, p.CollectedTickets.Value)
	assert.False(t, p.ShownPhotoIDs.Set)
}

func TestStateController_VisitUsesLocalDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	lib := &content.Library{
		Photos:      []content.Item{{ID: "p1"}},
		Messages:    []content.Item{{ID: "m1"}},
		SpecialDays: []string{"03-02"},
	}
	ctrl := NewStateController(services.NewStateStore(testutil.OpenDB(t), nil), lib, tokyo)
	ctrl.now = func() time.Time { return time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC) }
	ctrl.newRand = func() engagement.Rand { return rand.New(rand.NewSource(1)) }

	r := gin.New()
	r.POST("/visit", func(ctx *gin.Context) {
		ctx.Set(middleware.ContextIdentityKey, "sunflower")
	}, ctrl.Visit)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/visit", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data engagement.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	st := body.Data
	require.NotNil(t, st.LastStreakUpdateDate)
	assert.Equal(t, "2025-03-02", *st.LastStreakUpdateDate)
	assert.Equal(t, "2025-03-03", *st.NextAvailableDate)
	assert.True(t, st.DailyContent.IsSpecial)
	assert.Equal(t, "p1", *st.DailyContent.PhotoID)
	assert.Nil(t, st.DailyContent.MinigameID)
}
