// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats (plain text, PDF and DOCX), and the
// registry that dispatches a raw document to the best normaliser for its
// MIME type.
//
// Normalisers are registered with the Registry at startup.
package normalisers
