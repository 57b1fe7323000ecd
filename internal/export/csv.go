// Package export flattens rows into the CSV format downloads have always
// used. The output must stay byte-for-byte stable.
package export

import (
	"io"
	"strings"
	"time"

	"topicslog/internal/domain"
)

// TimeLayout formats CreatedAt and UpdatedAt, in UTC.
const TimeLayout = "2006-01-02 15:04:05"

// Missing stands in for an absent timestamp.
const Missing = "—"

// Header is the fixed column order.
var Header = []string{"Date", "Title", "Notes", "CreatedAt", "UpdatedAt"}

// Field quotes s iff it contains a comma, a double quote or a newline,
// doubling embedded quotes. encoding/csv also quotes on \r and leading
// spaces, which would change existing exports.
func Field(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return Missing
	}
	return t.UTC().Format(TimeLayout)
}

// Record is one row in Header order. Notes lose their markup.
func Record(row domain.Row) []string {
	return []string{
		row.Value("date"),
		row.Value("title"),
		StripHTML(row.Value("notes")),
		formatTime(row.CreatedAt),
		formatTime(row.UpdatedAt),
	}
}

func line(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = Field(f)
	}
	return strings.Join(quoted, ",")
}

// CSV renders the header and rows joined by "\n", without a trailing
// newline.
func CSV(rows []domain.Row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, line(Header))
	for _, r := range rows {
		lines = append(lines, line(Record(r)))
	}
	return strings.Join(lines, "\n")
}

func Write(w io.Writer, rows []domain.Row) error {
	_, err := io.WriteString(w, CSV(rows))
	return err
}

// Filename is the download name for a topic's export.
func Filename(topicName string) string {
	name := strings.TrimSpace(topicName)
	if name == "" {
		name = "topic"
	}
	return name + ".csv"
}
