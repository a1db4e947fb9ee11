// Package ui renders terminal summaries of job sheets.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/report"
)

const defaultWidth = 80

// PlanView summarizes a job sheet's sections and page plan.
type PlanView struct {
	sheet    *models.JobSheet
	plan     layout.PagePlan
	sections []layout.Section
	width    int
}

// NewPlanView creates a view for js and its plan.
func NewPlanView(js *models.JobSheet, plan layout.PagePlan, width int) *PlanView {
	if width <= 0 {
		width = defaultWidth
	}

	var sections []layout.Section
	if js != nil {
		sections = layout.GroupChecklist(js.ChecklistResponses)
		layout.ApplyGroupScoreLabels(sections, js.GroupScores)
	}

	return &PlanView{sheet: js, plan: plan, sections: sections, width: width}
}

// View renders the summary.
func (p *PlanView) View() string {
	if p.sheet == nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("197")).
			Render("Job sheet data unavailable")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		p.renderHeader(),
		"",
		p.renderSummary(),
		"",
		p.renderSections(),
		"",
		p.renderPages(),
	)
}

func (p *PlanView) renderHeader() string {
	title := report.ChecklistTitle(p.sheet)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	header := lipgloss.JoinHorizontal(
		lipgloss.Left,
		titleStyle.Render(truncateString(title, p.width-20)),
		lipgloss.NewStyle().Width(2).Render(" "),
		planStyle(p.plan.NeedsPagination).Render(planLabel(p.plan.NeedsPagination)),
	)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("240")).
		Width(p.width).
		Render(header)
}

func (p *PlanView) renderSummary() string {
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	labelStyle := lipgloss.NewStyle().Bold(true).Width(18)

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label), infoStyle.Render(value))
	}

	bi := p.sheet.BasicInfo
	lines := []string{
		row("Job Card:", orDash(bi.JobCardNumber)),
		row("Site:", orDash(p.sheet.TaskInfo.SiteName)),
		row("Status:", orDash(report.DisplayStatus(p.sheet))),
		row("Checklist Items:", fmt.Sprintf("%d", p.plan.ItemCount)),
		row("Estimated Height:", fmt.Sprintf("%.0fmm", p.plan.EstimatedHeightMM)),
	}
	if p.plan.Reason != "" {
		lines = append(lines, row("Reason:", p.plan.Reason))
	}

	return strings.Join(lines, "\n")
}

func (p *PlanView) renderSections() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	badgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(12)
	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("246"))

	lines := []string{titleStyle.Render("Sections")}
	for _, s := range p.sections {
		if s.Empty {
			lines = append(lines, countStyle.Render("  No checklist items"))
			continue
		}
		name := s.Title()
		if s.SubGroupName != "" {
			name += " / " + s.SubGroupName
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			"  ",
			badgeStyle.Render(fmt.Sprintf("Section %d", s.Number)),
			truncateString(name, p.width-30),
			countStyle.Render(fmt.Sprintf("  (%d)", len(s.Items))),
		))
	}
	return strings.Join(lines, "\n")
}

func (p *PlanView) renderPages() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("246"))

	lines := []string{titleStyle.Render("Pages")}
	if !p.plan.NeedsPagination {
		lines = append(lines, infoStyle.Render("  1 document, sliced into A4 bands when taller than one page"))
		return strings.Join(lines, "\n")
	}

	for i, chunk := range p.plan.Chunks {
		label := "continuation"
		switch {
		case len(p.plan.Chunks) == 1:
			label = "header, checklist, remarks"
		case i == 0:
			label = "header + checklist"
		case i == len(p.plan.Chunks)-1:
			label = "checklist + remarks"
		}
		lines = append(lines, infoStyle.Render(fmt.Sprintf("  Page %d: %d items (%s)", i+1, len(chunk), label)))
	}
	return strings.Join(lines, "\n")
}

func planLabel(paginate bool) string {
	if paginate {
		return "PAGINATE"
	}
	return "SINGLE PAGE"
}

func planStyle(paginate bool) lipgloss.Style {
	base := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 2).
		Foreground(lipgloss.Color("15"))
	if paginate {
		return base.Background(lipgloss.Color("208"))
	}
	return base.Background(lipgloss.Color("148"))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to fit within maxWidth.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 0 || len(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return s[:maxWidth]
	}
	return s[:maxWidth-3] + "..."
}
