package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Completion settings for the two LLM calls of a query.
const (
	DefaultTopK = 3

	contextualizeTemperature = 0.0
	contextualizeMaxTokens   = 100

	generateTemperature = 0.7
	generateMaxTokens   = 800
)

// QueryService answers questions from indexed documents, using the
// session's history to resolve follow-up questions.
type QueryService struct {
	sessions     driving.SessionService
	retriever    driving.SearchService
	llm          driven.LLMService
	prompts      driven.PromptStore
	historyLimit int
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithPromptStore sets where prompt templates are loaded from.
func WithPromptStore(p driven.PromptStore) QueryOption {
	return func(s *QueryService) {
		s.prompts = p
	}
}

// WithHistoryLimit caps how many past messages are sent to the LLM.
// Zero sends the whole session.
func WithHistoryLimit(n int) QueryOption {
	return func(s *QueryService) {
		if n >= 0 {
			s.historyLimit = n
		}
	}
}

// NewQueryService creates a query service. The llm may be nil, in which case
// every answer is an error response.
func NewQueryService(
	sessions driving.SessionService,
	retriever driving.SearchService,
	llm driven.LLMService,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		sessions:  sessions,
		retriever: retriever,
		llm:       llm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query runs contextualise, retrieve, generate and record in order.
// Capability failures never fail the call: they are reported through the
// result's Degraded list and, for generation, the response text. Only
// invalid input or a broken session store returns an error.
func (s *QueryService) Query(
	ctx context.Context, query, sessionID string, topK int,
) (*domain.QueryResult, error) {
	logger.Section("RAG Query")

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if s.sessions == nil {
		return nil, domain.ErrNotImplemented
	}

	history, err := s.sessions.History(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	logger.Debug("Session %s has %d messages", sessionID, len(history))

	result := &domain.QueryResult{
		Query:   query,
		Sources: []domain.SourceRef{},
	}

	result.ContextualizedQuery = s.contextualize(ctx, query, history, result)
	hits := s.retrieve(ctx, result.ContextualizedQuery, topK, result)
	result.Response = s.generate(ctx, query, hits, history, result)

	// The exchange is recorded even when the caller has gone away so the
	// log never holds a question without its answer.
	recordCtx := context.WithoutCancel(ctx)
	if err := s.sessions.Append(recordCtx, sessionID, domain.RoleUser, query); err != nil {
		return result, fmt.Errorf("record query: %w", err)
	}
	if err := s.sessions.Append(recordCtx, sessionID, domain.RoleAssistant, result.Response); err != nil {
		return result, fmt.Errorf("record response: %w", err)
	}

	return result, nil
}

// contextualize rewrites query as a standalone question. Without history it
// returns query unchanged; on failure it falls back to query.
func (s *QueryService) contextualize(
	ctx context.Context, query string, history []domain.Message, result *domain.QueryResult,
) string {
	if len(history) == 0 {
		return query
	}
	if s.llm == nil {
		result.Degraded = append(result.Degraded, domain.DegradedContextualize)
		return query
	}

	user := fmt.Sprintf("Chat history:\n%s\n\nQuestion:\n%s", domain.RenderTranscript(history), query)
	rewritten, err := s.llm.Complete(ctx, driven.CompletionRequest{
		SystemPrompt: s.prompt(driven.PromptContextualize),
		UserMessage:  user,
		MaxTokens:    contextualizeMaxTokens,
		Temperature:  contextualizeTemperature,
	})
	rewritten = strings.TrimSpace(rewritten)
	if err != nil || rewritten == "" {
		logger.Warn("Contextualization failed, using original query: %v", err)
		result.Degraded = append(result.Degraded, domain.DegradedContextualize)
		return query
	}

	logger.Debug("Contextualized query: %q", logger.TruncateForLog(rewritten, 200))
	return rewritten
}

// retrieve searches the index and records the sources in result.
func (s *QueryService) retrieve(
	ctx context.Context, query string, topK int, result *domain.QueryResult,
) []domain.SearchResult {
	if s.retriever == nil {
		result.Degraded = append(result.Degraded, domain.DegradedRetrieval)
		return nil
	}

	hits, err := s.retriever.Search(ctx, query, topK)
	if err != nil {
		logger.Warn("Retrieval failed, answering without context: %v", err)
		result.Degraded = append(result.Degraded, domain.DegradedRetrieval)
		return nil
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	for i := range hits {
		if hits[i].Text == "" {
			hits[i].Text = domain.PlaceholderText(hits[i].Source, hits[i].ChunkIndex)
		}
		result.Sources = append(result.Sources, domain.SourceRef{
			Source:     hits[i].Source,
			ChunkIndex: hits[i].ChunkIndex,
			Score:      hits[i].Score,
		})
	}
	return hits
}

// generate asks the LLM to answer the original query from the retrieved
// context and history. Failures become an error response.
func (s *QueryService) generate(
	ctx context.Context,
	query string,
	hits []domain.SearchResult,
	history []domain.Message,
	result *domain.QueryResult,
) string {
	if s.llm == nil {
		result.Degraded = append(result.Degraded, domain.DegradedGeneration)
		return ErrorResponse(domain.ErrLLMUnavailable)
	}

	answer, err := s.llm.Complete(ctx, driven.CompletionRequest{
		SystemPrompt: renderRAGPrompt(s.prompt(driven.PromptRAGSystem), BuildContext(hits)),
		History:      chatHistory(history),
		UserMessage:  query,
		MaxTokens:    generateMaxTokens,
		Temperature:  generateTemperature,
	})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		result.Degraded = append(result.Degraded, domain.DegradedGeneration)
		return ErrorResponse(err)
	}

	logger.Debug("Response: %q", logger.TruncateForLog(answer, 200))
	return answer
}

func (s *QueryService) prompt(name string) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		}
	}
	return driven.DefaultPrompts()[name]
}

// ErrorResponse is the answer text returned when generation fails.
func ErrorResponse(err error) string {
	return "Error: Unable to generate response. " + err.Error()
}

// BuildContext labels each chunk with its source and joins them with blank
// lines.
func BuildContext(hits []domain.SearchResult) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, "Document: "+h.Source+"\n"+h.Text)
	}
	return strings.Join(parts, "\n\n")
}

// renderRAGPrompt substitutes the first %s of template with context, or
// appends the context when the template has no placeholder.
func renderRAGPrompt(template, context string) string {
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", context, 1)
	}
	return template + "\n\n" + context
}

func chatHistory(history []domain.Message) []driven.ChatMessage {
	out := make([]driven.ChatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, driven.ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	return out
}
