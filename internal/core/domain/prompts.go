package domain

// AnswerSystemPrompt is the built-in grounding instruction.
const AnswerSystemPrompt = `You are a legal document assistant. Answer questions ONLY using the provided document excerpts.

RULES:
- Use ONLY information from the sources provided
- Cite every claim with [Source N]
- Use bullet points for multiple items
- If sources don't answer the question, say so
- End with: "Confidence: high/medium/low"

This is for research only, not legal advice.`

// AnswerUserTemplate wraps the question and the numbered sources.
// Placeholders: question, then sources.
const AnswerUserTemplate = `Question: %s

Sources:
%s

Answer the question using only the sources above. Cite with [Source N]. End with "Confidence: high/medium/low"`

// InsufficientEvidenceAnswer is returned without calling the LLM when
// retrieval found nothing.
const InsufficientEvidenceAnswer = "I cannot find sufficient information in the provided documents " +
	"to answer this question. No relevant document sections were found."
