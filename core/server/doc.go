// Package server holds the HTTP server configuration.
//
// The start command builds the Fiber app from these settings: the listen
// port, the API key checked by the auth middleware, the request body limit
// and how long a graceful shutdown may take.
package server
