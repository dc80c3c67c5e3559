package chat

import (
	"fmt"
	"strings"

	"github.com/nikhilbhutani/pdfchat/internal/models"
	"github.com/nikhilbhutani/pdfchat/internal/vectorstore"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// NoAnswer is what the model is told to say when the context lacks the answer.
const NoAnswer = "I don't know based on the given context."

// NoResponse replaces an empty completion.
const NoResponse = "No response generated."

var SystemInstruction = strings.TrimSpace(`
You are an expert teacher and explainer.

Explain everything in full detail:
- Start from basics
- Do not skip steps
- Explain intuition and reasoning
- Use examples
- Use markdown formatting
- Explain code line by line when present
If a concept can be misunderstood, explain it twice:
1) Simple intuition
2) Formal explanation
If the answer is not explicitly in the CONTEXT,
say: "` + NoAnswer + `"
`)

type Turn struct {
	Role string
	Text string
}

// BuildContext joins match texts in rank order, separated by a blank line.
func BuildContext(matches []vectorstore.Match) string {
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Metadata.Text)
	}
	return strings.Join(texts, "\n\n")
}

// QuestionTurn is the final user turn carrying context and question.
func QuestionTurn(context, question string) Turn {
	return Turn{
		Role: RoleUser,
		Text: fmt.Sprintf("CONTEXT:\n%s\n\nUSER QUESTION:\n%s", context, question),
	}
}

// BuildTurns maps history oldest first and appends the question turn.
func BuildTurns(history []models.Message, context, question string) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	for _, m := range history {
		role := RoleModel
		if m.IsUserMessage {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}
	return append(turns, QuestionTurn(context, question))
}
