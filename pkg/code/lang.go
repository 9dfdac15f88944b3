package code

import "strings"

// Supported message languages
// 支持的消息语言
const (
	LangEn = "en"
	LangZh = "zh"
)

// DefaultLang 请求未指定语言时使用
const DefaultLang = LangEn

// lang holds one message per supported language
type lang struct {
	en    string
	zh_cn string
}

// In returns the message for language, falling back to English.
// In 返回指定语言的消息，缺失时回退到英文
func (l lang) In(language string) string {
	if NormalizeLang(language) == LangZh && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// NormalizeLang maps request values such as "zh-CN" or "en_US,en;q=0.9" to a supported language.
// Unknown values give DefaultLang.
func NormalizeLang(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(language, ",;"); i >= 0 {
		language = language[:i]
	}
	language = strings.ReplaceAll(language, "_", "-")
	switch {
	case language == LangZh || strings.HasPrefix(language, "zh-"):
		return LangZh
	case language == LangEn || strings.HasPrefix(language, "en-"):
		return LangEn
	default:
		return DefaultLang
	}
}

// SupportedLanguages 支持的语言列表
func SupportedLanguages() []string {
	return []string{LangEn, LangZh}
}
