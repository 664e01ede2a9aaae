// Package logger builds the zap logger used by the server and the CLI.
//
// Level "debug" starts from zap's development config (ISO8601 times, caller
// info); anything else starts from the production config. Format "console"
// switches to colored human output, otherwise entries are JSON.
//
// Request handlers log through WithRayID so every line of one request
// carries the same ray_id as the X-Ray-ID response header:
//
//	l := logger.WithRayID(log, c)
//	l.Warn("Scope not allowed", zap.String("instance", id))
package logger
