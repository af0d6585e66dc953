package citations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

func TestFindSpans(t *testing.T) {
	tests := []struct {
		name    string
		quote   string
		context string
		want    []Span
	}{
		{name: "single", quote: "Waterloo", context: "University of Waterloo", want: []Span{{Start: 14, End: 22}}},
		{name: "repeated", quote: "ab", context: "ab-ab", want: []Span{{0, 2}, {3, 5}}},
		{name: "non overlapping", quote: "aa", context: "aaaa a", want: []Span{{0, 2}, {2, 4}}},
		{name: "trimmed quote", quote: "  club ", context: "the club", want: []Span{{4, 8}}},
		{name: "case sensitive", quote: "waterloo", context: "Waterloo"},
		{name: "blank", quote: "   ", context: "anything"},
		{name: "longer than context", quote: "abcdef", context: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSpans(tt.quote, tt.context))
		})
	}
}

func TestVerify(t *testing.T) {
	qa := QuestionAnswer{Answer: []Fact{
		{Fact: "studied maths", SubstringQuote: []string{"Computational Mathematics", "studied sharks"}},
		{Fact: "made up", SubstringQuote: []string{"went to the moon"}},
		{Fact: "club", SubstringQuote: []string{" Data Science club "}},
	}}
	dropped := qa.Verify(SampleContext)

	assert.Equal(t, []string{"studied sharks", "went to the moon"}, dropped)
	require.Len(t, qa.Answer, 2)
	assert.Equal(t, []string{"Computational Mathematics"}, qa.Answer[0].SubstringQuote)
	assert.Equal(t, []string{"Data Science club"}, qa.Answer[1].SubstringQuote)

	spans := qa.Answer[1].Spans(SampleContext)
	require.Len(t, spans, 1)
	assert.Equal(t, "Data Science club", SampleContext[spans[0].Start:spans[0].End])
}

func TestExtractReasksWhenNothingIsSupported(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"question":"q","answer":[{"fact":"He went to Harvard","substring_quote":["went to Harvard"]}]}`,
		`{"question":"What did the author do during college?","answer":[
		  {"fact":"Studied Computational Mathematics and physics","substring_quote":["in university I studied Computational Mathematics and physics"]},
		  {"fact":"Founded a club","substring_quote":["started the Data Science club","invented the club"]}]}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	qa, report, err := Extract(context.Background(), ex, SampleQuestion, SampleContext)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	require.Len(t, qa.Answer, 2)
	assert.Equal(t, []string{"started the Data Science club"}, qa.Answer[1].SubstringQuote)
	assert.Contains(t, gen.LastMessages()[3].Content, ErrNoSupportedFacts.Error())
}

func TestExtractRequiresContext(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{}`)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	_, _, err = Extract(context.Background(), ex, SampleQuestion, "")
	assert.True(t, errx.IsKind(err, errx.KindInput))
	assert.Empty(t, gen.Calls())
}
