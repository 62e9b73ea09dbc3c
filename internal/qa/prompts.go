package qa

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/docchat/internal/llm"
)

// FallbackAnswer is returned verbatim when the context does not contain
// the answer.
const FallbackAnswer = "Answer not found in the provided context."

const systemPrompt = `You answer questions about the user's documents. Use only the supplied context. Do not generate an incorrect answer.`

const answerPromptTemplate = `Based on the context, answer the question with as much detail as possible.
If the answer is not available in the context, say "%s"
Do not generate an incorrect answer.

Context: %s
Question: %s

Answer:`

// contextSeparator joins retrieved chunks when stuffing them into the prompt.
const contextSeparator = "\n\n"

// buildMessages stuffs every context chunk into a single grounded prompt.
func buildMessages(question string, contexts []string) []llm.Message {
	userPrompt := fmt.Sprintf(answerPromptTemplate, FallbackAnswer, strings.Join(contexts, contextSeparator), question)
	return llm.Prompt(systemPrompt, userPrompt)
}
