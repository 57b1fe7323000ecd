package domain

import "strings"

// TopicFilter narrows the topics list by ownership.
type TopicFilter string

const (
	FilterAll    TopicFilter = "all"
	FilterOwned  TopicFilter = "owned"
	FilterShared TopicFilter = "shared"
)

func ParseTopicFilter(name string) TopicFilter {
	switch TopicFilter(name) {
	case FilterOwned, FilterShared:
		return TopicFilter(name)
	}
	return FilterAll
}

// FilterTopics keeps the topics matching filter for uid whose name contains
// query, case-insensitively. Order is preserved.
func FilterTopics(topics []Topic, uid string, filter TopicFilter, query string) []Topic {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		switch {
		case filter == FilterOwned && t.OwnerUID != uid:
			continue
		case filter == FilterShared && t.OwnerUID == uid:
			continue
		case q != "" && !strings.Contains(strings.ToLower(t.Name), q):
			continue
		}
		out = append(out, t)
	}
	return out
}
