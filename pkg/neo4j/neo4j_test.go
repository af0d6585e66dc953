package neo4j

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	assert.False(t, (&Config{}).Enabled())
	assert.True(t, (&Config{URL: "neo4j://localhost:7687"}).Enabled())
}

func TestNewRejectsUnknownScheme(t *testing.T) {
	cfg := &Config{URL: "ftp://localhost:7687", User: "neo4j"}
	_, err := cfg.New(context.Background())
	assert.Error(t, err)
}
