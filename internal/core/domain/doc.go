// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A token-bounded span of page text, the unit of retrieval
//   - ProcessedDocument: The transient result of chunking one upload
//   - RetrievalResult: A chunk scored against a query vector
//   - Answer: A grounded, confidence-scored LLM answer
//   - DailyUsage: The per-day query and spend counters
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
