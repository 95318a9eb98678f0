package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const localeKey = "locale"

// Supported UI languages. The first entry is the fallback.
var supportedLocales = []language.Tag{language.English, language.German}

var localeMatcher = language.NewMatcher(supportedLocales)

// LocaleMiddleware resolves the request language from ?lang, the lang
// cookie and Accept-Language, in that order.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie("lang")
		c.Set(localeKey, MatchLocale(c.Query("lang"), cookie, c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// MatchLocale returns "en" or "de" for the given preferences.
func MatchLocale(prefs ...string) string {
	for _, p := range prefs {
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, confidence := localeMatcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		base, _ := supportedLocales[idx].Base()
		return base.String()
	}
	return "en"
}

// GetLocale returns the language resolved for this request.
func GetLocale(c *gin.Context) string {
	if v := c.GetString(localeKey); v != "" {
		return v
	}
	return "en"
}
