package service

import (
	"strings"
	"unicode/utf8"

	"github.com/noscite/noscite-assistant/internal/domain"
)

const (
	siteSourceTag     = "FONTE SITO WEB"
	documentSourceTag = "FONTE DOCUMENTO"

	itemSeparator  = "\n\n"
	groupSeparator = "\n\n---\n\n"

	// DefaultContextBudget bounds the assembled context, in runes.
	DefaultContextBudget = 6000

	// minTruncatedRunes is the smallest remainder worth a truncated entry.
	minTruncatedRunes = 200
	ellipsis          = "…"
)

// ContextAssembler renders retrieved entries into the prompt context block.
type ContextAssembler struct {
	budget int
}

func NewContextAssembler(budget int) *ContextAssembler {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &ContextAssembler{budget: budget}
}

// Assemble renders site entries then document entries in rank order.
// Site content has first claim on the budget. The first entry that does not
// fit is truncated when enough budget remains; everything after it is dropped.
func (a *ContextAssembler) Assemble(site, docs []*domain.KnowledgeEntry) string {
	remaining := a.budget
	var groups []string

	for _, g := range []struct {
		tag     string
		entries []*domain.KnowledgeEntry
	}{
		{siteSourceTag, site},
		{documentSourceTag, docs},
	} {
		if remaining <= 0 {
			break
		}

		sep := 0
		if len(groups) > 0 {
			sep = utf8.RuneCountInString(groupSeparator)
		}

		items, used, full := renderGroup(g.tag, g.entries, remaining-sep)
		if len(items) > 0 {
			groups = append(groups, strings.Join(items, itemSeparator))
			remaining -= used + sep
		}
		if full {
			break
		}
	}

	return strings.Join(groups, groupSeparator)
}

// renderGroup returns the rendered items, the runes they consume including
// separators, and whether the budget was exhausted.
func renderGroup(tag string, entries []*domain.KnowledgeEntry, budget int) ([]string, int, bool) {
	var items []string
	used := 0
	sepLen := utf8.RuneCountInString(itemSeparator)

	for _, e := range entries {
		if e == nil {
			continue
		}
		cost := 0
		if len(items) > 0 {
			cost = sepLen
		}
		avail := budget - used - cost
		item := formatEntry(tag, e)
		n := utf8.RuneCountInString(item)

		if n <= avail {
			items = append(items, item)
			used += cost + n
			continue
		}

		if avail >= minTruncatedRunes {
			items = append(items, truncateRunes(item, avail))
			used += cost + avail
		}
		return items, used, true
	}
	return items, used, false
}

func formatEntry(tag string, e *domain.KnowledgeEntry) string {
	return tag + " - " + e.Title + ": " + e.Content
}

// truncateRunes cuts s to at most max runes, the last being an ellipsis.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + ellipsis
}
