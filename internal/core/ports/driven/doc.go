// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TextExtractor: Validates uploads and extracts per-page text
//   - Tokenizer: Counts tokens for chunk sizing and cost accounting
//   - PageProcessor / PageProcessorPipeline: Turns page text into chunks
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - VectorStore: Tenant-scoped chunk and vector storage (memory, SQLite, Qdrant)
//   - LLMService: Completes grounded prompts
//   - ConfigStore: Application configuration
//   - Clock: Current time for daily usage periods
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PromptStore: Customisable prompt templates. Without it, built-in prompts are used.
//   - AIConfigValidator: Connectivity checks for configured providers.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
