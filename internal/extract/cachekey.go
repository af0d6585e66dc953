package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/structure"
)

// cacheKey fingerprints everything that shapes the answer except the prompt
// template text; renaming the request invalidates entries after a prompt edit.
func cacheKey(gen llm.Generator, def *structure.Definition, req Request) (string, error) {
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		sum := sha256.Sum256(img.Data)
		images = append(images, img.MIMEType+":"+hex.EncodeToString(sum[:]))
	}

	b, err := json.Marshal(struct {
		Provider string          `json:"provider"`
		Model    string          `json:"model"`
		Name     string          `json:"name"`
		Schema   json.RawMessage `json:"schema"`
		Vars     map[string]any  `json:"vars"`
		Images   []string        `json:"images"`
	}{
		Provider: gen.Provider(),
		Model:    gen.Model(),
		Name:     req.Name,
		Schema:   def.JSON(),
		Vars:     req.Vars,
		Images:   images,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", req.Name, err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func structureFor(out any, req Request) (*structure.Definition, error) {
	return structure.For(out, req.Name, req.Description)
}
