// Package model defines the minimal chat model contract consumed by agent
// implementations, plus an in-memory mock for tests and examples. Concrete
// provider adapters live in the model/anthropic and model/openai
// subpackages; the core never depends on a specific vendor.
package model
