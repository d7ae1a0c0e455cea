// Package logging provides structured logging for nextron dev sessions and
// production builds, plus the short console lines users see.
//
// # Debug Log
//
// [Logger] wraps log/slog with a JSON handler. When logging is enabled in
// nextron.yaml, entries go to .nextron/debug.log through a [RotatingWriter];
// otherwise commands use [NopLogger].
//
//	logger, err := logging.NewLoggerWithRotation(".nextron", "DEBUG", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithSession(sessionID).WithComponent("supervisor")
//	log.Info("renderer started", "pid", pid, "port", 8888)
//
// # Console
//
// [Console] prints the "[nextron] ..." status lines and compiler diagnostics.
// Colors are only emitted for terminals and are disabled by NO_COLOR.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
package logging
