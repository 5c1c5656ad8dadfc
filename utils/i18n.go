package utils

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// Minimal server-side catalog for API messages; UI strings live in the frontend.
var translations = map[string]map[string]string{
	"en": {
		"ok":                "success",
		"invalid_payload":   "invalid request payload",
		"code_required":     "please enter your code",
		"code_too_short":    "code must be at least 4 characters",
		"invalid_code":      "invalid code",
		"not_logged_in":     "not logged in",
		"code_exists":       "this code already exists",
		"admin_denied":      "admin secret is invalid",
		"invalid_state":     "invalid state update",
		"server_error":      "something went wrong, please try again",
		"rate_limited":      "too many requests",
		"logged_out":        "logged out",
		"api_not_found":     "api route not found",
		"session_issue_err": "failed to create session",
	},
	"zh": {
		"ok":                "成功",
		"invalid_payload":   "请求参数无效",
		"code_required":     "请输入访问码",
		"code_too_short":    "访问码至少需要4个字符",
		"invalid_code":      "访问码无效",
		"not_logged_in":     "未登录",
		"code_exists":       "该访问码已存在",
		"admin_denied":      "管理员密钥无效",
		"invalid_state":     "状态更新无效",
		"server_error":      "出错了，请稍后重试",
		"rate_limited":      "请求过于频繁",
		"logged_out":        "已退出",
		"api_not_found":     "接口不存在",
		"session_issue_err": "创建会话失败",
	},
}

var (
	supportedLocales = []language.Tag{language.English, language.Chinese}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// SetDefaultLocale makes locale the fallback when nothing in the request matches.
func SetDefaultLocale(locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		return
	}
	tags := []language.Tag{tag}
	for _, t := range supportedLocales {
		if t != tag {
			tags = append(tags, t)
		}
	}
	supportedLocales = tags
	localeMatcher = language.NewMatcher(tags)
}

// Locale resolves the message locale from ?lang= or Accept-Language.
func Locale(ctx *gin.Context) string {
	if ctx == nil || ctx.Request == nil {
		return "en"
	}
	var prefs []language.Tag
	if q := ctx.Query("lang"); q != "" {
		if t, err := language.Parse(q); err == nil {
			prefs = append(prefs, t)
		}
	}
	if accept, _, err := language.ParseAcceptLanguage(ctx.GetHeader("Accept-Language")); err == nil {
		prefs = append(prefs, accept...)
	}
	tag, _, _ := localeMatcher.Match(prefs...)
	base, _ := tag.Base()
	return base.String()
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}
