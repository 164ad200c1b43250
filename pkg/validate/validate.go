// Package validate настраивает go-playground/validator для моделей запросов:
// decimal.Decimal проверяется как число (gt=0 и т.п.).
package validate

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Get возвращает общий экземпляр валидатора
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})
	return instance
}

// Struct проверяет структуру по тегам validate
func Struct(v interface{}) error {
	return Get().Struct(v)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
