package service

import "github.com/xiaot623/supportiq/internal/domain"

// WindowHistory maps chronological messages to prompt entries. With a
// positive budget the oldest entries are dropped until the rest fit; the
// newest entry is always kept.
func WindowHistory(messages []domain.Message, budget int, counter TokenCounter) []domain.HistoryEntry {
	entries := make([]domain.HistoryEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, domain.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	if budget <= 0 || len(entries) == 0 {
		return entries
	}

	total := 0
	start := len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		n := counter.Count(entries[i].Content)
		if total+n > budget && i < len(entries)-1 {
			break
		}
		total += n
		start = i
	}
	return entries[start:]
}
