package handlers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/LovationAdmin/trainer-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request models to
// gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
			_, err := models.ParseServiceType(fl.Field().String())
			return err == nil
		})
	})
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "servicetype":
		return fmt.Sprintf("unknown service type %q", fe.Value())
	default:
		return fmt.Sprintf("invalid %s", field)
	}
}
