package app

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type ValidError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString 以逗号拼接所有错误消息
func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ",")
}

// Maps 以字段名为键返回错误消息
func (v ValidErrors) Maps() map[string]string {
	m := make(map[string]string, len(v))
	for _, err := range v {
		m[err.Key] = err.Message
	}
	return m
}

// MapsToString 以 JSON 字符串形式返回 Maps
func (v ValidErrors) MapsToString() string {
	b, _ := json.Marshal(v.Maps())
	return string(b)
}

// BindAndValid binds request data and validates it, translating validator messages
// BindAndValid 绑定请求参数并校验，校验错误按请求语言翻译
func BindAndValid(c *gin.Context, v any) (bool, ValidErrors) {
	var errs ValidErrors

	err := c.ShouldBind(v)
	if err == nil {
		return true, nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs = append(errs, &ValidError{
			Key:     "body",
			Message: err.Error(),
		})
		return false, errs
	}

	trans := translatorFromGin(c)
	for _, validationErr := range validationErrors {
		msg := validationErr.Error()
		if trans != nil {
			msg = validationErr.Translate(trans)
		}
		errs = append(errs, &ValidError{
			Key:     validationErr.Field(),
			Message: msg,
		})
	}

	return false, errs
}

func translatorFromGin(c *gin.Context) ut.Translator {
	v, ok := c.Get(KeyTranslator)
	if !ok {
		return nil
	}
	trans, _ := v.(ut.Translator)
	return trans
}
