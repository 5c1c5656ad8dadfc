package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetDefaultLocale("en")

	cases := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "en"},
		{"accept chinese", "/", "zh-CN,zh;q=0.9", "zh"},
		{"query wins", "/?lang=zh", "en-US", "zh"},
		{"unsupported falls back", "/", "fr-FR", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Request = httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.accept != "" {
				ctx.Request.Header.Set("Accept-Language", tc.accept)
			}
			assert.Equal(t, tc.want, Locale(ctx))
		})
	}
}

func TestT(t *testing.T) {
	assert.Equal(t, "invalid code", T("en", "invalid_code"))
	assert.Equal(t, "访问码无效", T("zh", "invalid_code"))
	assert.Equal(t, "invalid code", T("fr", "invalid_code"))
	assert.Equal(t, "no_such_key", T("en", "no_such_key"))
}
