// Package logger provides structured logging for trainlog using zerolog.
//
// Library packages log at debug level through component loggers; programs
// call Init once with their configured level and format.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("jsonl")
//	log.Debug("opened log", logger.Fields(logger.FieldPath, path, "gzip", true))
package logger
