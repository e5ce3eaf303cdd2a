package replica

import (
	"sort"
	"strings"

	"github.com/yourorg/taskhub/internal/domain"
)

// StatusAll matches every task regardless of status.
const StatusAll = "all"

// Filter returns the tasks matching a status filter and a free-text
// search, preserving input order. The status filter is either StatusAll
// or an exact status value. The search matches case-insensitively
// against title, description and assignee name.
func Filter(tasks []domain.Task, status, search string) []domain.Task {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != StatusAll && string(t.Status) != status {
			continue
		}
		if needle != "" && !matches(t, needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t domain.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) ||
		strings.Contains(strings.ToLower(t.AssignedTo), needle)
}

// NewestFirst returns a copy sorted by creation time descending. This
// is the default presentation order, not part of the filter contract.
func NewestFirst(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
