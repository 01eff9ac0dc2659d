// Package logger provides structured logging for rawes using zerolog.
//
// It supports JSON and console output, log level configuration,
// component-scoped loggers, and size-rotated log files.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//	  output: "/var/log/rawes/client.log"
//	  max_size: 50
//
// An output of "stdout" or "stderr" writes to the terminal; any other value
// is treated as a file path and rotated with lumberjack.
//
// # Usage
//
//	log := logger.New(&cfg, "rawes").WithComponent("elastic")
//	log.Debug("request done", logger.Fields("method", "GET", "status", 200))
package logger
