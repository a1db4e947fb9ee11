// Package layout groups checklist responses into report sections and plans
// how a job sheet is split across PDF pages.
package layout

import (
	"strings"

	"github.com/joshsymonds/jobsheet/internal/models"
)

// Ungrouped substitutes for a missing group or sub-group id in section keys.
const Ungrouped = "ungrouped"

// NotCompleted is shown in every result cell when no item has a response.
const NotCompleted = "Not Completed"

// Section is one (group, sub-group) block of checklist items.
type Section struct {
	Key          string
	GroupName    string
	SubGroupName string
	Items        []models.ChecklistItem

	// Number is the 1-based position of the section in the whole document.
	Number int

	// Empty marks the placeholder section returned for an empty checklist.
	Empty bool
}

// Title is the section heading, defaulting to "Ungrouped".
func (s Section) Title() string {
	if s.GroupName != "" {
		return s.GroupName
	}
	return "Ungrouped"
}

// SectionKey returns the grouping key for item.
func SectionKey(item models.ChecklistItem) string {
	group, sub := item.GroupID, item.SubGroupID
	if group == "" {
		group = Ungrouped
	}
	if sub == "" {
		sub = Ungrouped
	}
	return group + "_" + sub
}

// GroupChecklist groups items by section key in order of first occurrence.
// An empty input yields a single Section with Empty set.
func GroupChecklist(items []models.ChecklistItem) []Section {
	if len(items) == 0 {
		return []Section{{Key: Ungrouped + "_" + Ungrouped, Empty: true}}
	}

	index := make(map[string]int)
	var sections []Section

	for _, item := range items {
		key := SectionKey(item)
		pos, seen := index[key]
		if !seen {
			pos = len(sections)
			index[key] = pos
			sections = append(sections, Section{
				Key:          key,
				GroupName:    item.GroupName,
				SubGroupName: item.SubGroupName,
				Number:       pos + 1,
			})
		}
		sections[pos].Items = append(sections[pos].Items, item)
	}

	return sections
}

// GroupPage groups one page's chunk of items while keeping the section
// numbers they have in the whole checklist.
func GroupPage(chunk, all []models.ChecklistItem) []Section {
	numbers := make(map[string]int)
	for _, s := range GroupChecklist(all) {
		numbers[s.Key] = s.Number
	}

	sections := GroupChecklist(chunk)
	for i := range sections {
		if n, ok := numbers[sections[i].Key]; ok {
			sections[i].Number = n
		}
	}
	return sections
}

// ApplyGroupScoreLabels fills missing sub-group names from group_scores
// entries with a matching sub-group id.
func ApplyGroupScoreLabels(sections []Section, scores []models.GroupScore) {
	if len(scores) == 0 {
		return
	}

	labels := make(map[string]string, len(scores))
	for _, gs := range scores {
		if gs.SubGroupID != "" && gs.SubGroupName != "" {
			labels[gs.SubGroupID] = gs.SubGroupName
		}
	}

	for i := range sections {
		s := &sections[i]
		if s.SubGroupName != "" || len(s.Items) == 0 {
			continue
		}
		if label, ok := labels[s.Items[0].SubGroupID]; ok {
			s.SubGroupName = label
		}
	}
}

// Flatten concatenates the items of sections in order.
func Flatten(sections []Section) []models.ChecklistItem {
	var items []models.ChecklistItem
	for _, s := range sections {
		items = append(items, s.Items...)
	}
	return items
}

// AnyResponse reports whether at least one item carries a response.
func AnyResponse(items []models.ChecklistItem) bool {
	for _, item := range items {
		if item.HasResponse() {
			return true
		}
	}
	return false
}

// ResolveResult returns the result cell text for item. anyResponse must be
// computed over the whole checklist, not the item's section.
func ResolveResult(item models.ChecklistItem, anyResponse bool) string {
	switch {
	case item.HasResponse():
		return item.Response
	case anyResponse:
		return ""
	default:
		return NotCompleted
	}
}

// SerialNumber is item.Index when set, else the 1-based position in its section.
func SerialNumber(item models.ChecklistItem, position int) string {
	if strings.TrimSpace(item.Index) != "" {
		return item.Index
	}
	return itoa(position)
}
