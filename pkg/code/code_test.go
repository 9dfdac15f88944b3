package code

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLang(t *testing.T) {
	tests := map[string]string{
		"":               LangEn,
		"en":             LangEn,
		"EN-us":          LangEn,
		"zh":             LangZh,
		"zh_CN":          LangZh,
		"zh-TW,zh;q=0.9": LangZh,
		"fr-FR,fr;q=0.9": DefaultLang,
		" zh-Hans-CN ":   LangZh,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLang(in), in)
	}
}

func TestCode_MsgIn(t *testing.T) {
	assert.Equal(t, "Patch not found", ErrorPatchNotFound.Msg())
	assert.Equal(t, "补丁不存在", ErrorPatchNotFound.MsgIn("zh-CN"))
	assert.Equal(t, "Patch not found", ErrorPatchNotFound.MsgIn("de"))
}

func TestCode_WithDetailsDoesNotLeak(t *testing.T) {
	a := ErrorInvalidParams.WithDetails("first")
	b := ErrorInvalidParams.WithDetails("second")

	assert.Equal(t, []string{"first"}, a.Details())
	assert.Equal(t, []string{"second"}, b.Details())
	assert.False(t, ErrorInvalidParams.HaveDetails())

	withData := a.WithData(42)
	assert.Equal(t, []string{"first"}, withData.Details())
	assert.Equal(t, 42, withData.Data())
}

func TestCode_Is(t *testing.T) {
	err := fmt.Errorf("save: %w", ErrorFieldStale.WithDetails("seq 3"))
	assert.True(t, errors.Is(err, ErrorFieldStale))
	assert.False(t, errors.Is(err, ErrorFieldBusy))
	assert.Equal(t, 200, ErrorFieldStale.StatusCode())
}

func TestNewError_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { NewError(ErrorDBQuery.Code(), lang{en: "dup"}) })
}
