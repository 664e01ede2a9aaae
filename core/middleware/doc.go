// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a request id (RayID) for every request, stored in the context
//     and echoed in the X-Ray-ID response header for tracing.
//
// Register rayid first so every later log line carries the id.
package middleware
