package middleware

import (
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator picks the reply language from ?lang=, the lang header or Accept-Language,
// and stores it with the matching validator translator.
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.GetQuery("lang")
		if !ok || raw == "" {
			raw = c.GetHeader("lang")
		}
		if raw == "" {
			raw = c.GetHeader("Accept-Language")
		}
		lang := code.NormalizeLang(raw)
		c.Set(app.KeyLang, lang)

		if uni != nil {
			trans, found := uni.GetTranslator(lang)
			if !found {
				trans, _ = uni.GetTranslator(code.DefaultLang)
			}
			c.Set(app.KeyTranslator, trans)
		}

		c.Next()
	}
}
