// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-api/internal/i18n"
)

// I18nMiddleware picks the response language from Accept-Language. Only
// languages with a loaded catalog are selected; everything else is English.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", negotiate(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

func negotiate(header string) string {
	supported := map[string]bool{}
	for _, lang := range i18n.GetSupportedLanguages() {
		supported[lang] = true
	}

	// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		switch tag {
		case "zh-TW", "zh-Hant", "zh_TW":
			tag = "zh_TW"
		case "en-US", "en-GB":
			tag = "en"
		}
		if supported[tag] {
			return tag
		}
	}
	return "en"
}
