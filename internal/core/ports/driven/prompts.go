package driven

// PromptStore supplies the system prompts sent to the LLM. Implementations
// return the built-in template for a known name they cannot load, and must
// reflect edits without a restart.
type PromptStore interface {
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
const (
	// PromptContextualize is the system prompt that turns a follow-up
	// question into a standalone one. It has no format placeholders.
	PromptContextualize = "contextualize_system"

	// PromptRAGSystem is the grounding system prompt.
	// The template expects one %s placeholder for the retrieved context.
	PromptRAGSystem = "rag_system"
)

// DefaultPrompts returns the built-in prompt templates keyed by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptContextualize: DefaultContextualizePrompt,
		PromptRAGSystem:     DefaultRAGSystemPrompt,
	}
}

// DefaultContextualizePrompt is the built-in PromptContextualize template.
const DefaultContextualizePrompt = `Given a chat history and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise return it as is.`

// DefaultRAGSystemPrompt is the built-in PromptRAGSystem template.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultRAGSystemPrompt = `You are a helpful assistant that answers questions based on the provided context.
Based on the following context and conversation history, please provide a relevant and contextual response.
If the answer cannot be derived from the context, only use the conversation history or say "I cannot answer this based on the provided information."

Context from documents:
%s`
