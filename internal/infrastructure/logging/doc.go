// Package logging provides structured logging for the relay hub.
//
// It wraps the standard log/slog package so every component logs with the
// same handler, level filter and default fields (service, version).
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("listening", "port", 3000)
//	logger.With("component", "relay").Debug("frame dropped", "device_id", id)
package logging
