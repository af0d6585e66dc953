// Package character extracts a character sheet from free text.
package character

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

const Name = "character"

const Sample = "Harry James Potter, 17, is a wizard who attended Hogwarts, plays Quidditch as a Seeker and has a lightning-bolt scar on his forehead."

type Character struct {
	Name  string   `json:"name" validate:"required" jsonschema_description:"Full name of the character"`
	Age   int      `json:"age" validate:"gte=0,lte=150" jsonschema_description:"Age in years"`
	Facts []string `json:"facts" validate:"dive,required" jsonschema_description:"A list of facts about the character"`
}

// Validate requires the name to be written with capitalised words.
func (c *Character) Validate() error {
	for _, word := range strings.Fields(c.Name) {
		if r := []rune(word)[0]; unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return fmt.Errorf("name %q must be capitalised", c.Name)
		}
	}
	return nil
}

var characterPrompt = recipes.NewPrompt(
	"Extract the character described in the text: their full name, age and a list of short facts.",
	"{{.Text}}",
)

func Extract(ctx context.Context, ex *extract.Extractor, text string) (*Character, *extract.Report, error) {
	if err := recipes.RequireText(Name, text); err != nil {
		return nil, nil, err
	}
	var out Character
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Character described in the text",
		Prompt:      characterPrompt,
		Vars:        map[string]any{"Text": text},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
