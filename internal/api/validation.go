package api

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"eventhub-backend/internal/models"
)

var (
	hhmmPattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	registerOnce sync.Once
)

// RegisterValidations adds the EventHub tags to gin's validator and makes
// field errors report json names.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)

		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
			return oneOf(models.Categories, fl.Field().String())
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return oneOf(models.Currencies, fl.Field().String())
		})
		_ = v.RegisterValidation("rsvp_status", func(fl validator.FieldLevel) bool {
			return models.ValidRSVPStatus(models.RSVPStatus(fl.Field().String()))
		})
		_ = v.RegisterValidation("report_reason", func(fl validator.FieldLevel) bool {
			return models.ValidReportReason(models.ReportReason(fl.Field().String()))
		})
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func oneOf(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
