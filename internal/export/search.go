package export

import (
	"strings"

	"topicslog/internal/domain"
)

// SearchText is what a row search matches against: date, title and the
// text of the notes.
func SearchText(row domain.Row) string {
	return strings.ToLower(row.Value("date") + " " + row.Value("title") + " " + StripHTML(row.Value("notes")))
}

// Filter keeps rows whose search text contains query. An empty query keeps
// everything.
func Filter(rows []domain.Row, query string) []domain.Row {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Row, 0, len(rows))
	for _, r := range rows {
		if q == "" || strings.Contains(SearchText(r), q) {
			out = append(out, r)
		}
	}
	return out
}
