package config

import (
	"go.uber.org/zap"
)

// setLogger builds the zap logger for the given environment. Anything other
// than development or production gets the example logger, which is what local
// runs and tests want.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}
