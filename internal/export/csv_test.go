package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "x"`, `"say ""x"""`},
		{"two\nlines", "\"two\nlines\""},
		{" leading space", " leading space"},
		{"carriage\rreturn", "carriage\rreturn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Field(tt.in), "input %q", tt.in)
	}
}

func TestCSV_NotesExampleIsByteExact(t *testing.T) {
	notes := "He said, \"hi\"\nBye"
	created := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	rows := []domain.Row{{
		Values:    map[string]string{"date": "2024-01-05", "title": "Chat", "notes": notes},
		CreatedAt: created,
	}}

	got := CSV(rows)

	want := "Date,Title,Notes,CreatedAt,UpdatedAt\n" +
		"2024-01-05,Chat,\"He said, \"\"hi\"\"\nBye\",2024-01-05 09:30:00,—"
	assert.Equal(t, want, got)
	assert.False(t, strings.HasSuffix(got, "\n"))

	// a standard reader gets the original string back
	records, err := csv.NewReader(strings.NewReader(got)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, notes, records[1][2])
}

func TestCSV_HeaderOnly(t *testing.T) {
	assert.Equal(t, "Date,Title,Notes,CreatedAt,UpdatedAt", CSV(nil))
}

func TestCSV_StripsNotesAndFormatsUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	rows := []domain.Row{{
		Values:    map[string]string{"date": "2024-02-01", "title": "Plan", "notes": "<p>Buy <b>milk</b> &amp; eggs</p>"},
		CreatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, loc),
		UpdatedAt: time.Date(2024, 2, 1, 11, 15, 30, 0, loc),
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-02-01,Plan,Buy milk & eggs,2024-02-01 04:30:00,2024-02-01 05:45:30", lines[1])
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", StripHTML(""))
	assert.Equal(t, "no markup", StripHTML("no markup"))
	assert.Equal(t, "onetwo", StripHTML("<ol><li>one</li><li>two</li></ol>"))
	assert.Equal(t, "a < b", StripHTML("a &lt; b"))
	assert.Equal(t, "link", StripHTML(`<a href="https://example.com">link</a>`))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Journal.csv", Filename("Journal"))
	assert.Equal(t, "topic.csv", Filename("  "))
}
