// Package utils holds small value helpers shared by the HTTP handlers.
package utils
