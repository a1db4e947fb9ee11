// Package models defines the job sheet payload consumed by the renderer.
//
// The backend schema is permissive: any field may be missing, null, a number
// where a string was expected, or a string where a boolean was expected. All
// parsing goes through gjson so absent values collapse to zero values instead
// of errors.
package models

// JobSheet is the root job sheet document.
type JobSheet struct {
	BasicInfo          BasicInfo
	TaskInfo           TaskInfo
	Personnel          Personnel
	Summary            Summary
	Metadata           *Metadata
	GroupScores        []GroupScore
	ChecklistResponses []ChecklistItem
	SystemComments     []string
}

// BasicInfo holds job card identity, lifecycle dates and before/after capture.
type BasicInfo struct {
	JobCardNumber     string
	JobID             string
	ScheduledDate     string
	CompletedDate     string
	CreatedDate       string
	BeforeImageURL    string
	AfterImageURL     string
	BeforeSubmittedAt string
	AfterSubmittedAt  string
	Comments          string
	BreakdownStatus   string
	Priority          string

	// BeforeAfter is true when before_after_enabled is true/"true" or steps == 3.
	BeforeAfter bool
}

// TaskInfo is the job sheet's task_details block.
type TaskInfo struct {
	SiteName     string
	Asset        Asset
	TaskName     string
	TaskStatus   string
	TaskComments string
}

// Asset describes the serviced asset.
type Asset struct {
	Name     string
	Code     string
	Category string
	Location *Location
}

// Location is the asset's physical location. A nil *Location means the
// payload carried no location object at all.
type Location struct {
	Site     string
	Building string
	Wing     string
	Floor    string
	Area     string
	Room     string
}

// Cells returns the location fields in display order.
func (l Location) Cells() []string {
	return []string{l.Site, l.Building, l.Wing, l.Floor, l.Area, l.Room}
}

// Personnel holds who performed the task.
type Personnel struct {
	PerformedBy PerformedBy
}

// PerformedBy identifies the technician.
type PerformedBy struct {
	FullName string
	Type     string
}

// Summary aggregates execution status.
type Summary struct {
	TimeTracking         *TimeTracking
	TaskCompletionStatus string
	IsOverdue            bool
}

// TimeTracking records when work started and ended.
type TimeTracking struct {
	StartTime       string
	EndTime         string
	DurationHours   int64
	DurationMinutes int64
}

// Metadata carries checklist completion and scoring totals.
type Metadata struct {
	CompletedItems       int64
	TotalChecklistItems  int64
	CompletionPercentage float64
	Scoring              Scoring
	ChecklistFor         []string
}

// Scoring is the overall checklist score.
type Scoring struct {
	TotalScore        float64
	MaxPossibleScore  float64
	OverallPercentage float64
}

// GroupScore is a per sub-group score entry.
type GroupScore struct {
	GroupID      string
	GroupName    string
	SubGroupID   string
	SubGroupName string
	Score        float64
	MaxScore     float64
}

// ChecklistItem is one checklist response row.
type ChecklistItem struct {
	GroupID      string
	GroupName    string
	SubGroupID   string
	SubGroupName string
	Index        string
	Activity     string
	Label        string
	Response     string
	Comment      string
	Attachments  []Attachment

	Weightage        float64
	Rating           float64
	MaxRating        float64
	Score            float64
	MaxPossibleScore float64
}

// InspectionPoint is the activity text, falling back to the label.
func (c ChecklistItem) InspectionPoint() string {
	if c.Activity != "" {
		return c.Activity
	}
	return c.Label
}

// HasResponse reports whether the item carries a non-blank response.
func (c ChecklistItem) HasResponse() bool {
	return !isBlank(c.Response)
}

// Attachment is a file uploaded against a checklist item.
type Attachment struct {
	URL  string
	Name string
}

// TaskDetails is the separate task payload supplied next to the job sheet.
type TaskDetails struct {
	ID           string
	TopLevelID   string
	CreatedOn    string
	ScheduledOn  string
	TaskComments string
}

// ReportID returns the identifier used in generated file names, or "" when
// the payload carries none.
func (t *TaskDetails) ReportID() string {
	if t == nil {
		return ""
	}
	if t.ID != "" {
		return t.ID
	}
	return t.TopLevelID
}

// Input is one render request.
type Input struct {
	TaskDetails  []byte
	JobSheetData []byte
	Comments     string
	Hostname     string
}
