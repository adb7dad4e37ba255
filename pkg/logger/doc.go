// Package logger provides structured logging for the tweet statistics collector.
//
// It wraps the zerolog library behind a small Logger interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colored levels
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "tweetstats/pkg/logger"
//
//	// Initialize the global logger
//	err := logger.Initialize(&logger.Config{
//	    Level: "info",
//	    File:  "/var/log/tweetstats.log",
//	})
//
//	// Use the global logger
//	logger.Info("collection started")
//	logger.WithField("username", "jack").Info("fetched profile")
//	logger.WithError(err).Error("failed to fetch timeline page")
package logger
