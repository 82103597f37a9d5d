// Package sqlite provides a SQLite-backed implementation of the conversation,
// document catalogue and vector store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. All stores share one database connection pool:
//
//   - ConversationStore: sessions and their ordered messages
//   - DocumentStore: the uploaded document catalogue
//   - VectorStore: collections of vectors searched by brute-force cosine
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and
// applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/sercha-rag.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode
// with a busy timeout and write transactions take the lock up front, so
// appends to one session commit in call order.
package sqlite
