package pii

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

func TestScrub(t *testing.T) {
	p := PIIDataExtraction{PrivateData: []Data{
		{Index: 0, DataType: "Name", PIIValue: "John Doe"},
		{Index: 1, DataType: "date of birth", PIIValue: "12/12/1980"},
		{Index: 2, DataType: "ADDRESS", PIIValue: "123 Main St, Springfield"},
		{Index: 3, DataType: "EMAIL", PIIValue: "john.doe@email.com"},
		{Index: 4, DataType: "EMPTY", PIIValue: ""},
	}}

	got := p.Scrub("John Doe, born on 12/12/1980, lives at 123 Main St, Springfield. Mail john.doe@email.com or ask John Doe.")
	assert.Equal(t, "<NAME_0>, born on <DATE_OF_BIRTH_1>, lives at <ADDRESS_2>. Mail <EMAIL_3> or ask <NAME_0>.", got)
}

func TestScrubAppliesInOrder(t *testing.T) {
	p := PIIDataExtraction{PrivateData: []Data{
		{Index: 0, DataType: "EMAIL", PIIValue: "jo@doe.com"},
		{Index: 1, DataType: "NAME", PIIValue: "jo"},
	}}
	assert.Equal(t, "<EMAIL_0> and <NAME_1>", p.Scrub("jo@doe.com and jo"))
}

func TestScrubNumbersByPosition(t *testing.T) {
	p := PIIDataExtraction{PrivateData: []Data{
		{Index: 0, DataType: "name", PIIValue: "John Doe"},
		{Index: 0, DataType: "name", PIIValue: "Jane Roe"},
	}}
	assert.Equal(t, "<NAME_0> met <NAME_1>.", p.Scrub("John Doe met Jane Roe."))
}

func TestScrubLeavesPlaceholdersAlone(t *testing.T) {
	p := PIIDataExtraction{PrivateData: []Data{
		{Index: 0, DataType: "name", PIIValue: "Ann"},
		{Index: 1, DataType: "code", PIIValue: "NAME"},
		{Index: 2, DataType: "id", PIIValue: "0"},
	}}
	assert.Equal(t, "<NAME_0> uses <CODE_1> and <ID_2>", p.Scrub("Ann uses NAME and 0"))
}

func TestScrubNothingToReplace(t *testing.T) {
	p := PIIDataExtraction{PrivateData: []Data{{DataType: "name"}}}
	assert.Equal(t, "unchanged", p.Scrub("unchanged"))
}

func TestExtract(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"private_data":[{"index":0,"data_type":"NAME","pii_value":"Jon Doe"}]}`,
		`{"private_data":[{"index":0,"data_type":"NAME","pii_value":"John Doe"},{"index":1,"data_type":"EMAIL","pii_value":"john.doe@email.com"}]}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	p, report, err := Extract(context.Background(), ex, Sample)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	assert.Contains(t, gen.LastMessages()[3].Content, `not found: ["Jon Doe"]`)
	assert.Equal(t, "<NAME_0>, born on 12/12/1980, currently resides at 123 Main St, Springfield. He can be contacted at <EMAIL_1>\n", p.Scrub(Sample))
}
