package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

func TestClassify(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"class_label":"junk"}`, `{"class_label":"spam"}`)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	pred, report, err := Classify(context.Background(), ex, "Hello there I'm a Nigerian prince and I want to give you money")
	require.NoError(t, err)
	assert.Equal(t, Spam, pred.ClassLabel)
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, "Classify the following text: Hello there I'm a Nigerian prince and I want to give you money", gen.Calls()[0].Messages[1].Content)
}

func TestClassifyMulti(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"class_labels":["billing","billing"]}`,
		`{"class_labels":["tech_issue","billing"]}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	pred, report, err := ClassifyMulti(context.Background(), ex, "My account is locked and I can't access my billing info.")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	assert.True(t, pred.Has(TechIssue))
	assert.True(t, pred.Has(Billing))
	assert.False(t, pred.Has(GeneralQuery))
	assert.Contains(t, gen.LastMessages()[3].Content, "unique")
}
