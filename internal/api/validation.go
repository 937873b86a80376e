package api

import (
	"math"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request bodies.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Warn().Msg("Binding engine is not go-playground/validator, custom tags unavailable")
			return
		}
		if err := v.RegisterValidation("probability", validateProbability); err != nil {
			log.Error().Err(err).Msg("Failed to register probability validator")
		}
	})
}

// validateProbability accepts values in (0, 1].
func validateProbability(fl validator.FieldLevel) bool {
	p := fl.Field().Float()
	return !math.IsNaN(p) && p > 0 && p <= 1
}
