// Package connectors holds the document sources that feed directory
// ingestion. The filesystem connector walks a local directory tree and can
// watch it for changes.
package connectors
