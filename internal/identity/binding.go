package identity

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the "handle" binding tag to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return ValidHandle(fl.Field().String())
	})
}
