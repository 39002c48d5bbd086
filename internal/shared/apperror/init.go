package apperror

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var initOnce sync.Once

// Init makes gin's validator name fields after their json keys, so error
// messages and details read "fromDate" rather than "FromDate". Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
	})
}

// jsonFieldName falls back to the Go field name when there is no json key;
// "-" hides the field from reports.
func jsonFieldName(fld reflect.StructField) string {
	tag, ok := fld.Tag.Lookup("json")
	if !ok {
		return fld.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}
