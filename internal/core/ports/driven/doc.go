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
//   - VectorStore: Vector database (Qdrant, SQLite or in-memory)
//   - ConversationStore: Per-session message logs
//   - DocumentStore: Catalogue of uploaded documents
//   - BlobStore: Original bytes of uploaded documents
//   - NormaliserRegistry: Text extraction by MIME type
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it, stored chunks get zero-vectors and search is a no-op.
//   - LLMService: Without it, queries return an error response instead of an answer.
//   - PromptStore: Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
