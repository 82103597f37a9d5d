// Package messages defines the Bubbletea messages exchanged between the TUI views.
// Commands that call a service report back with one of the *Loaded, *Started,
// *Completed or *Deleted messages. A non-nil Err means the call failed.
package messages

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ViewType identifies a screen. The zero value is the chat.
type ViewType int

const (
	ViewChat ViewType = iota
	ViewDocuments
	ViewDocContent
	ViewHelp
)

var viewNames = [...]string{
	ViewChat:       "chat",
	ViewDocuments:  "documents",
	ViewDocContent: "doc_content",
	ViewHelp:       "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// SessionStarted reports a freshly created session.
type SessionStarted struct {
	SessionID string
	Err       error
}

// HistoryLoaded carries the transcript of a resumed session.
type HistoryLoaded struct {
	SessionID string
	Messages  []domain.Message
	Err       error
}

// QueryCompleted carries the answer to Query.
type QueryCompleted struct {
	Query  string
	Result *domain.QueryResult
	Err    error
}

type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected opens a document in the content view.
type DocumentSelected struct {
	Document domain.Document
}

type DocumentContentLoaded struct {
	DocumentID string
	Content    string
	Err        error
}

// DocumentDeleted reports removal of a document and its vectors.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// ErrorOccurred surfaces an error in the active view.
type ErrorOccurred struct {
	Err error
}

// Quit exits the program.
type Quit struct{}
