package llm

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// LoadImage reads an image file and sniffs its MIME type.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("load image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("load image %s: not an image (%s)", path, mime)
	}
	return Image{MIMEType: mime, Data: data}, nil
}
