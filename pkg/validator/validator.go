// Package validator 提供 gin 使用的自定义校验器
package validator

import (
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator implements binding.StructValidator with lazy initialization
// CustomValidator 实现 binding.StructValidator，延迟初始化
type CustomValidator struct {
	Once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// OwnerKinds 合法的记录类型
var OwnerKinds = map[string]struct{}{
	"project":  {},
	"schedule": {},
}

// RegisterCustom 注册自定义校验规则
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

// Register 在指定校验器上注册 owner_kind 规则
func Register(v *validator.Validate) error {
	return v.RegisterValidation("owner_kind", func(fl validator.FieldLevel) bool {
		_, ok := OwnerKinds[fl.Field().String()]
		return ok
	})
}
