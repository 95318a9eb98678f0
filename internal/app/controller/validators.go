package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/util"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// bindingRules are the custom tags request structs use.
var bindingRules = map[string]validator.Func{
	"slug": func(fl validator.FieldLevel) bool {
		return util.IsValidSlug(fl.Field().String())
	},
	"menu_template": func(fl validator.FieldLevel) bool {
		return entitlement.Template(fl.Field().String()).IsValid()
	},
}

// RegisterValidators adds the custom binding tags to gin's validator. The
// result of the first call is returned on every later call.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = registerRules(v, bindingRules)
	})
	return registerErr
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Error("Failed to register binding rule", err, map[string]interface{}{
				"tag": tag,
			})
			return fmt.Errorf("register %q rule: %w", tag, err)
		}
	}
	return nil
}
