// Package domain contains the core entities and value objects for camship.
//
// It is the innermost layer: no dependencies on transport, process
// management, or logging.
//
//   - [Frame]: one marker-delimited image unit from the capture stream
//   - [StreamProfile]: the resolution/quality pair requested of the encoder
//
// Entities are immutable after construction and testable without mocks.
package domain
