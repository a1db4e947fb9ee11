package layout

import (
	"strconv"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Height estimates in millimetres for each fixed report section.
const (
	HeaderHeightMM          = 25.0
	ClientInfoHeightMM      = 45.0
	LocationHeightMM        = 25.0
	BeforeAfterHeightMM     = 70.0
	StatusHeightMM          = 15.0
	RemarksHeightMM         = 20.0
	RemarksWithCommentMM    = 30.0
	FooterHeightMM          = 15.0
	ChecklistTitleHeightMM  = 12.0
	ChecklistHeaderRowMM    = 10.0
	ChecklistRowHeightMM    = 8.0
	DefaultSinglePageCeilMM = 600.0
	DefaultItemsPerPage     = 20
	DefaultChunkSize        = 18
)

// Limits bound the single-page rendering path.
type Limits struct {
	SinglePageCeilingMM float64
	ItemsPerPage        int
	ChunkSize           int
}

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{
		SinglePageCeilingMM: DefaultSinglePageCeilMM,
		ItemsPerPage:        DefaultItemsPerPage,
		ChunkSize:           DefaultChunkSize,
	}
}

// PagePlan is the pagination decision for one render.
type PagePlan struct {
	Chunks            [][]models.ChecklistItem
	Reason            string
	EstimatedHeightMM float64
	ItemCount         int
	NeedsPagination   bool
}

// Pages is the number of physical pages the chunked renderer would produce.
func (p PagePlan) Pages() int {
	if len(p.Chunks) == 0 {
		return 1
	}
	return len(p.Chunks)
}

// Planner decides between single-page and chunked rendering.
type Planner struct {
	logger logger.Logger
	limits Limits
}

// NewPlanner creates a planner. Zero-valued limits fall back to defaults.
func NewPlanner(limits Limits, log logger.Logger) *Planner {
	def := DefaultLimits()
	if limits.SinglePageCeilingMM <= 0 {
		limits.SinglePageCeilingMM = def.SinglePageCeilingMM
	}
	if limits.ItemsPerPage <= 0 {
		limits.ItemsPerPage = def.ItemsPerPage
	}
	if limits.ChunkSize <= 0 {
		limits.ChunkSize = def.ChunkSize
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Planner{limits: limits, logger: log}
}

// Plan computes the page plan for js. A nil job sheet never needs pagination.
func (p *Planner) Plan(js *models.JobSheet, comment string) PagePlan {
	var items []models.ChecklistItem
	if js != nil {
		items = js.ChecklistResponses
	}

	plan := PagePlan{
		EstimatedHeightMM: EstimateHeightMM(js, comment),
		ItemCount:         len(items),
	}

	switch {
	case plan.EstimatedHeightMM > p.limits.SinglePageCeilingMM:
		plan.NeedsPagination = true
		plan.Reason = "estimated height exceeds single page ceiling"
	case plan.ItemCount > p.limits.ItemsPerPage:
		plan.NeedsPagination = true
		plan.Reason = "checklist item count exceeds per-page ceiling"
	}

	if plan.NeedsPagination {
		plan.Chunks = Chunk(items, p.limits.ChunkSize)
	}

	p.logger.Debug("Planned job sheet pages",
		"estimated_height_mm", plan.EstimatedHeightMM,
		"items", plan.ItemCount,
		"needs_pagination", plan.NeedsPagination,
		"chunks", len(plan.Chunks))

	return plan
}

// Plan computes a page plan with the default limits.
func Plan(js *models.JobSheet, comment string) PagePlan {
	return NewPlanner(DefaultLimits(), nil).Plan(js, comment)
}

// EstimateHeightMM sums the fixed section estimates and the checklist rows.
// Only the presence of a caller comment changes the remarks estimate.
func EstimateHeightMM(js *models.JobSheet, comment string) float64 {
	remarks := RemarksHeightMM
	if comment != "" {
		remarks = RemarksWithCommentMM
	}

	total := HeaderHeightMM + ClientInfoHeightMM + LocationHeightMM +
		BeforeAfterHeightMM + StatusHeightMM + remarks + FooterHeightMM

	items := 0
	if js != nil {
		items = len(js.ChecklistResponses)
	}
	total += ChecklistTitleHeightMM + ChecklistHeaderRowMM + float64(items)*ChecklistRowHeightMM

	return total
}

// Chunk splits items into consecutive slices of at most size items.
func Chunk(items []models.ChecklistItem, size int) [][]models.ChecklistItem {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(items) == 0 {
		return [][]models.ChecklistItem{nil}
	}

	chunks := make([][]models.ChecklistItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
