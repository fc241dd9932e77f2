// Package providers holds per-backend configuration types and the helpers
// shared by every adapter: HTTP error mapping, error-body parsing, and model
// selection. Concrete adapters live in subpackages.
package providers
