package main

import "go.uber.org/zap"

var (
	cfgFile string
	logger  *zap.Logger
)

// Common flag names as constants
const (
	flagOutput = "output"
)
