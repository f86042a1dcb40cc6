package http

import (
	"sync"

	"studio-server/internal/curriculum"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validatorsOnce sync.Once

// registerValidators adds the curriculum enums to gin's binding validator:
// `lessontype`, `direction` and `courselevel`.
func registerValidators(logger *zap.Logger) {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.Warn("Gin validator engine is not go-playground/validator, custom tags disabled")
			return
		}
		rules := map[string]validator.Func{
			"lessontype": func(fl validator.FieldLevel) bool {
				return curriculum.LessonType(fl.Field().String()).Valid()
			},
			"direction": func(fl validator.FieldLevel) bool {
				return curriculum.Direction(fl.Field().String()).Valid()
			},
			"courselevel": func(fl validator.FieldLevel) bool {
				return curriculum.Level(fl.Field().String()).Valid()
			},
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				logger.Error("Failed to register validator", zap.String("tag", tag), zap.Error(err))
			}
		}
	})
}
