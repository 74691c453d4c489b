package driven

// Prompt names understood by every PromptStore.
const (
	// PromptAnswerSystem is the grounding instruction sent as the system
	// message. Plain text, no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser formats the user message with two %s verbs:
	// the question, then the numbered sources.
	PromptAnswerUser = "answer_user"
)

// PromptStore serves prompt text by name. Callers keep a built-in copy of
// each prompt and use it when Load fails.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached prompts so the next Load sees edits.
	Reload()
}
