// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration with SERCHA_RAG_* environment overrides
//   - PromptStore: user-editable prompt templates
//   - BlobStore: uploaded document storage
package file
