// Package logger provides structured logging for modkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("runner")
//	log.Info("run finished", logger.Fields("run_id", id, "modules", n))
package logger
