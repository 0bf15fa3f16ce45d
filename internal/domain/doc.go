// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (section.go, contact.go, viewport.go, etc.)
// with shared types and cross-cutting interfaces. No implementation code beyond parsing
// and small value helpers - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
