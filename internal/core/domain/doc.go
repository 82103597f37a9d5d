// Package domain holds the value types shared by every layer of sercha-rag:
// documents and their chunks, conversation sessions, query and search
// results, candidate profiles with their match scores, and settings.
//
// It imports only the standard library. Sentinel errors in errors.go are
// grouped by IsValidation, IsNotFound and IsCapability so that adapters can
// map them to exit codes or HTTP statuses without string matching.
package domain
