package report

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/models"
)

// RemarksSeparator joins aggregated remarks.
const RemarksSeparator = " • "

// LocationPlaceholder fills empty location cells.
const LocationPlaceholder = "•"

const completedAfterOverdue = "Completed After Overdue"

var upper = cases.Upper(language.Und)

type infoPair struct {
	Label string
	Value string
}

type infoRow struct {
	Left  infoPair
	Right infoPair
}

type locationView struct {
	Cells   []string
	Present bool
}

type imageSide struct {
	Label     string
	URL       template.URL
	Timestamp string
	HasImage  bool
}

type rowView struct {
	Serial       string
	Point        string
	Result       string
	Remarks      string
	Attachments  []template.URL
	NotCompleted bool
}

type sectionView struct {
	Title    string
	Subtitle string
	Rows     []rowView
	Number   int
}

type checklistView struct {
	Title          string
	StatusLine     string
	CompletionLine string
	Sections       []sectionView
	Empty          bool
}

// clientInfoRows builds the eight label/value rows of the client info grid.
func clientInfoRows(js *models.JobSheet) []infoRow {
	if js == nil {
		js = &models.JobSheet{}
	}

	bi := js.BasicInfo
	ti := js.TaskInfo
	pb := js.Personnel.PerformedBy

	var start, end string
	if tt := js.Summary.TimeTracking; tt != nil {
		start, end = tt.StartTime, tt.EndTime
	}

	return []infoRow{
		{infoPair{"Site Name", ti.SiteName}, infoPair{"Job Card No.", bi.JobCardNumber}},
		{infoPair{"Asset Name", ti.Asset.Name}, infoPair{"Job ID", bi.JobID}},
		{infoPair{"Asset Code", ti.Asset.Code}, infoPair{"Scheduled Date", FormatDate(bi.ScheduledDate)}},
		{infoPair{"Task Name", ti.TaskName}, infoPair{"Completed Date", FormatDate(bi.CompletedDate)}},
		{infoPair{"Performed By", pb.FullName}, infoPair{"Performed By Type", pb.Type}},
		{infoPair{"Status", DisplayStatus(js)}, infoPair{"Priority", bi.Priority}},
		{infoPair{"Start Time", start}, infoPair{"End Time", end}},
		{infoPair{"Duration", Duration(js.Summary.TimeTracking)}, infoPair{"Breakdown Status", bi.BreakdownStatus}},
	}
}

// DisplayStatus returns the task status, reporting "Completed After Overdue"
// when an overdue task was completed.
func DisplayStatus(js *models.JobSheet) string {
	if js == nil {
		return ""
	}
	status := js.TaskInfo.TaskStatus
	if status == "" {
		status = js.Summary.TaskCompletionStatus
	}
	if js.Summary.IsOverdue && status == "Completed" {
		return completedAfterOverdue
	}
	return status
}

// Duration formats time tracking as H:MM:00, or "" without time tracking.
func Duration(tt *models.TimeTracking) string {
	if tt == nil {
		return ""
	}
	return fmt.Sprintf("%d:%02d:00", tt.DurationHours, tt.DurationMinutes)
}

// LocationCells returns the six location cells with placeholders applied.
func LocationCells(loc models.Location) []string {
	cells := loc.Cells()
	for i, c := range cells {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" || trimmed == "null" {
			cells[i] = LocationPlaceholder
		}
	}
	return cells
}

func buildLocation(js *models.JobSheet) locationView {
	if js == nil || js.TaskInfo.Asset.Location == nil {
		return locationView{}
	}
	return locationView{Present: true, Cells: LocationCells(*js.TaskInfo.Asset.Location)}
}

func buildBeforeAfter(js *models.JobSheet) []imageSide {
	bi := js.BasicInfo
	return []imageSide{
		newImageSide("Before", bi.BeforeImageURL, bi.BeforeSubmittedAt),
		newImageSide("After", bi.AfterImageURL, bi.AfterSubmittedAt),
	}
}

func newImageSide(label, url, ts string) imageSide {
	side := imageSide{Label: label, Timestamp: FormatDate(ts)}
	if u := strings.TrimSpace(url); u != "" && u != "null" {
		side.URL = safeImageURL(u)
		side.HasImage = side.URL != ""
	}
	return side
}

var amPMTimestamp = regexp.MustCompile(`(?i)^.+,\s*.+\s(AM|PM)$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
}

// FormatDate passes "<date>, <time> AM/PM" values through unchanged and
// reformats anything else it can parse as DD/MM/YYYY. Unparseable values are
// returned as-is.
func FormatDate(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if amPMTimestamp.MatchString(v) {
		return v
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return v
}

// AggregateRemarks trims parts, drops blanks, and joins the rest in order.
func AggregateRemarks(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, RemarksSeparator)
}

// Remarks collects task comments, the caller comment, basic info comments,
// per-item comments, and system comments, in that order.
func Remarks(js *models.JobSheet, task *models.TaskDetails, comment string) string {
	var taskComments string
	if js != nil {
		taskComments = js.TaskInfo.TaskComments
	}
	if strings.TrimSpace(taskComments) == "" && task != nil {
		taskComments = task.TaskComments
	}

	parts := []string{taskComments, comment}
	if js != nil {
		parts = append(parts, js.BasicInfo.Comments)
		for _, item := range js.ChecklistResponses {
			parts = append(parts, item.Comment)
		}
		parts = append(parts, js.SystemComments...)
	}
	return AggregateRemarks(parts...)
}

// ChecklistTitle is the upper-cased task name, the service checklist title
// for the asset category, or "NEW ACTIVITY".
func ChecklistTitle(js *models.JobSheet) string {
	if js == nil {
		return "NEW ACTIVITY"
	}
	if name := strings.TrimSpace(js.TaskInfo.TaskName); name != "" {
		return upper.String(name)
	}
	if cat := strings.TrimSpace(js.TaskInfo.Asset.Category); cat != "" {
		return "SERVICE CHECKLIST OF " + upper.String(cat)
	}
	return "NEW ACTIVITY"
}

// buildChecklist renders the items of one page. all is the whole checklist
// and drives the status line, section numbering and the result rule.
func buildChecklist(js *models.JobSheet, page []models.ChecklistItem, withHeading bool) checklistView {
	var all []models.ChecklistItem
	if js != nil {
		all = js.ChecklistResponses
	}

	view := checklistView{}
	if withHeading {
		view.Title = ChecklistTitle(js)
	}

	if len(all) == 0 {
		view.Empty = true
		return view
	}

	anyResponse := layout.AnyResponse(all)
	if withHeading {
		total := len(all)
		if anyResponse {
			sectionCount := len(layout.GroupChecklist(all))
			view.StatusLine = fmt.Sprintf("Showing all %d checklist items in %d section(s)", total, sectionCount)
		} else {
			view.StatusLine = fmt.Sprintf("Checklist pending completion (%d items)", total)
		}
		if md := js.Metadata; md != nil {
			view.CompletionLine = fmt.Sprintf("Completion: %.1f%% (%d of %d items completed)",
				md.CompletionPercentage, md.CompletedItems, md.TotalChecklistItems)
		}
	}

	sections := layout.GroupPage(page, all)
	layout.ApplyGroupScoreLabels(sections, js.GroupScores)

	for _, s := range sections {
		if s.Empty {
			continue
		}
		sv := sectionView{Number: s.Number, Title: s.Title(), Subtitle: s.SubGroupName}
		for i, item := range s.Items {
			result := layout.ResolveResult(item, anyResponse)
			row := rowView{
				Serial:       layout.SerialNumber(item, i+1),
				Point:        item.InspectionPoint(),
				Result:       result,
				Remarks:      item.Comment,
				NotCompleted: result == layout.NotCompleted,
			}
			for _, att := range item.Attachments {
				if u := safeImageURL(att.URL); u != "" {
					row.Attachments = append(row.Attachments, u)
				}
			}
			sv.Rows = append(sv.Rows, row)
		}
		view.Sections = append(view.Sections, sv)
	}

	return view
}

// safeImageURL admits http(s), protocol-relative, root-relative and inline
// image URLs. Anything else is dropped.
func safeImageURL(raw string) template.URL {
	u := strings.TrimSpace(raw)
	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "//"),
		strings.HasPrefix(lower, "/"),
		strings.HasPrefix(lower, "data:image/"):
		return template.URL(u) //nolint:gosec // scheme allow-listed above
	default:
		return ""
	}
}
