package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fintelia/basisu/basisu"
)

// setupLogger installs the CLI logger for the command and the library.
func setupLogger(verbose bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Encoding = "console"
		l, err = cfg.Build()
	}
	if err != nil {
		l = zap.NewNop()
	}
	basisu.SetLogger(l)
	return l
}
