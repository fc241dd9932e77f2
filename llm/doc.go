// Package llm defines the provider contract shared by all text-generation
// backends: chat request/response types, the uniform error taxonomy, and the
// Provider interface. Concrete adapters live under llm/providers.
package llm
