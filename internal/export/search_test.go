package export

import (
	"testing"

	"topicslog/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	rows := []domain.Row{
		{ID: "1", Values: map[string]string{"date": "2024-01-01", "title": "Groceries", "notes": "<p>Buy <b>milk</b></p>"}},
		{ID: "2", Values: map[string]string{"date": "2024-03-02", "title": "Standup", "notes": "blocked on review"}},
		{ID: "3", Values: map[string]string{"date": "2024-03-09", "title": "Retro"}},
	}

	ids := func(rows []domain.Row) []string {
		out := []string{}
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter(rows, "")))
	assert.Equal(t, []string{"1"}, ids(Filter(rows, "MILK")))
	assert.Equal(t, []string{"2", "3"}, ids(Filter(rows, "2024-03")))
	assert.Equal(t, []string{"2"}, ids(Filter(rows, " review ")))
	// markup is not searchable
	assert.Empty(t, Filter(rows, "<b>"))
}
