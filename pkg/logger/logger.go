package logger

import "go.uber.org/zap"

// New builds the process-wide logger. Debug mode switches to the console
// encoder with debug-level output.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
