// Package recipes holds helpers shared by the extraction recipes in its
// subpackages.
package recipes

import (
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
)

// RequireText rejects blank input before any model call is made.
func RequireText(recipe, text string) error {
	if strings.TrimSpace(text) == "" {
		return errx.Input("%s: input text is empty", recipe)
	}
	return nil
}

// NewPrompt builds a chat template with a system instruction and a user turn.
// Both are Go templates rendered with the request vars.
func NewPrompt(system, user string) prompt.ChatTemplate {
	return prompt.FromMessages(schema.GoTemplate,
		schema.SystemMessage(strings.TrimSpace(system)),
		schema.UserMessage(user),
	)
}
