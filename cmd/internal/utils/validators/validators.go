package validators

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

// NoDupes rejects string slices containing repeated values. Used for the
// selected column list of a run request.
func NoDupes(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		log.Warnf("nodupes applied to non-slice field %s", fl.FieldName())
		return false
	}

	seen := make(map[string]struct{}, field.Len())
	for i := 0; i < field.Len(); i++ {
		val, ok := field.Index(i).Interface().(string)
		if !ok {
			return false
		}
		if _, dup := seen[val]; dup {
			return false
		}
		seen[val] = struct{}{}
	}
	return true
}
