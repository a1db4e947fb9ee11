package models

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJobSheet extracts the job sheet from raw JSON. Both the wrapped
// {"data":{"job_sheet":...}} and the flat {"job_sheet":...} shapes are
// accepted. ok is false when neither is present.
func ParseJobSheet(raw []byte) (sheet *JobSheet, ok bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, false
	}

	root := gjson.ParseBytes(raw)
	js := root.Get("data.job_sheet")
	if !js.IsObject() {
		js = root.Get("job_sheet")
	}
	if !js.IsObject() {
		return nil, false
	}

	return parseJobSheet(js), true
}

// ParseTaskDetails extracts the task payload fields used by the renderer.
// Invalid or empty JSON yields an empty value.
func ParseTaskDetails(raw []byte) *TaskDetails {
	td := &TaskDetails{}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return td
	}

	root := gjson.ParseBytes(raw)
	inner := root.Get("task_details")
	td.ID = truthy(inner.Get("id"))
	td.TopLevelID = truthy(root.Get("id"))
	td.CreatedOn = firstString(root, "created_on", "task_details.created_on")
	td.ScheduledOn = firstString(root, "scheduled_on", "task_details.scheduled_on")
	td.TaskComments = truthy(inner.Get("task_comments"))
	return td
}

func parseJobSheet(js gjson.Result) *JobSheet {
	sheet := &JobSheet{
		BasicInfo: parseBasicInfo(js.Get("basic_info")),
		TaskInfo:  parseTaskInfo(js.Get("task_details")),
		Personnel: Personnel{PerformedBy: PerformedBy{
			FullName: truthy(js.Get("personnel.performed_by.full_name")),
			Type:     truthy(js.Get("personnel.performed_by.type")),
		}},
		Summary: parseSummary(js.Get("summary")),
	}

	if md := js.Get("metadata"); md.IsObject() {
		sheet.Metadata = parseMetadata(md)
	}

	js.Get("group_scores").ForEach(func(_, gs gjson.Result) bool {
		if gs.IsObject() {
			sheet.GroupScores = append(sheet.GroupScores, GroupScore{
				GroupID:      truthy(gs.Get("group_id")),
				GroupName:    truthy(gs.Get("group_name")),
				SubGroupID:   truthy(gs.Get("sub_group_id")),
				SubGroupName: truthy(gs.Get("sub_group_name")),
				Score:        gs.Get("score").Float(),
				MaxScore:     gs.Get("max_score").Float(),
			})
		}
		return true
	})

	js.Get("checklist_responses").ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			sheet.ChecklistResponses = append(sheet.ChecklistResponses, parseChecklistItem(item))
		}
		return true
	})

	comments := js.Get("comments")
	if !comments.IsArray() {
		comments = js.Get("system_comments")
	}
	comments.ForEach(func(_, c gjson.Result) bool {
		if text := systemComment(c); text != "" {
			sheet.SystemComments = append(sheet.SystemComments, text)
		}
		return true
	})

	return sheet
}

func parseBasicInfo(bi gjson.Result) BasicInfo {
	info := BasicInfo{
		JobCardNumber:   truthy(bi.Get("job_card_number")),
		JobID:           truthy(bi.Get("job_id")),
		ScheduledDate:   truthy(bi.Get("scheduled_date")),
		CompletedDate:   truthy(bi.Get("completed_date")),
		CreatedDate:     truthy(bi.Get("created_date")),
		Comments:        truthy(bi.Get("comments")),
		BreakdownStatus: truthy(bi.Get("breakdown_status")),
		Priority:        truthy(bi.Get("priority")),
	}

	info.BeforeImageURL = attachmentURL(bi, "before_attachment_url", "before_attachment")
	info.AfterImageURL = attachmentURL(bi, "after_attachment_url", "after_attachment")
	info.BeforeSubmittedAt = firstString(bi, "before_submitted_date", "created_date")
	info.AfterSubmittedAt = firstString(bi, "after_submitted_date", "completed_date")

	enabled := bi.Get("before_after_enabled")
	steps := bi.Get("steps")
	info.BeforeAfter = enabled.Type == gjson.True ||
		(enabled.Type == gjson.String && enabled.Str == "true") ||
		(steps.Type == gjson.Number && steps.Num == 3)

	return info
}

func parseTaskInfo(td gjson.Result) TaskInfo {
	info := TaskInfo{
		SiteName:     truthy(td.Get("site_name")),
		TaskName:     truthy(td.Get("task_name")),
		TaskStatus:   truthy(td.Get("task_status")),
		TaskComments: truthy(td.Get("task_comments")),
		Asset: Asset{
			Name:     truthy(td.Get("asset.asset_name")),
			Code:     truthy(td.Get("asset.asset_code")),
			Category: truthy(td.Get("asset.category")),
		},
	}

	if loc := td.Get("asset.location"); loc.IsObject() {
		info.Asset.Location = &Location{
			Site:     rawString(loc.Get("site")),
			Building: rawString(loc.Get("building")),
			Wing:     rawString(loc.Get("wing")),
			Floor:    rawString(loc.Get("floor")),
			Area:     rawString(loc.Get("area")),
			Room:     rawString(loc.Get("room")),
		}
	}

	return info
}

func parseSummary(s gjson.Result) Summary {
	sum := Summary{
		TaskCompletionStatus: truthy(s.Get("task_completion_status")),
		IsOverdue:            s.Get("is_overdue").Bool(),
	}

	if tt := s.Get("time_tracking"); tt.IsObject() {
		sum.TimeTracking = &TimeTracking{
			StartTime:       truthy(tt.Get("start_time")),
			EndTime:         truthy(tt.Get("end_time")),
			DurationHours:   tt.Get("duration_hours").Int(),
			DurationMinutes: tt.Get("duration_minutes").Int(),
		}
	}

	return sum
}

func parseMetadata(md gjson.Result) *Metadata {
	meta := &Metadata{
		CompletedItems:       md.Get("completed_items").Int(),
		TotalChecklistItems:  md.Get("total_checklist_items").Int(),
		CompletionPercentage: md.Get("completion_percentage").Float(),
		Scoring: Scoring{
			TotalScore:        md.Get("scoring.total_score").Float(),
			MaxPossibleScore:  md.Get("scoring.max_possible_score").Float(),
			OverallPercentage: md.Get("scoring.overall_percentage").Float(),
		},
	}

	cf := md.Get("checklist_for")
	switch {
	case cf.IsArray():
		cf.ForEach(func(_, v gjson.Result) bool {
			if s := truthy(v); s != "" {
				meta.ChecklistFor = append(meta.ChecklistFor, s)
			}
			return true
		})
	case truthy(cf) != "":
		meta.ChecklistFor = []string{cf.String()}
	}

	return meta
}

func parseChecklistItem(item gjson.Result) ChecklistItem {
	ci := ChecklistItem{
		GroupID:          truthy(item.Get("group_id")),
		GroupName:        truthy(item.Get("group_name")),
		SubGroupID:       truthy(item.Get("sub_group_id")),
		SubGroupName:     truthy(item.Get("sub_group_name")),
		Index:            truthy(item.Get("index")),
		Activity:         truthy(item.Get("activity")),
		Label:            truthy(item.Get("label")),
		Response:         itemResponse(item),
		Comment:          firstString(item, "comments", "comment"),
		Weightage:        item.Get("weightage").Float(),
		Rating:           item.Get("rating").Float(),
		MaxRating:        item.Get("max_rating").Float(),
		Score:            item.Get("score").Float(),
		MaxPossibleScore: item.Get("max_possible_score").Float(),
	}

	item.Get("attachments").ForEach(func(_, a gjson.Result) bool {
		var att Attachment
		if a.IsObject() {
			att.URL = firstString(a, "url", "file_url")
			att.Name = firstString(a, "filename", "name")
		} else {
			att.URL = truthy(a)
		}
		if att.URL != "" {
			ci.Attachments = append(ci.Attachments, att)
		}
		return true
	})

	return ci
}

// itemResponse resolves input_value, falling back to userData (or its first
// element when it is an array).
func itemResponse(item gjson.Result) string {
	if v := truthy(item.Get("input_value")); v != "" {
		return v
	}

	ud := item.Get("userData")
	if !ud.Exists() {
		ud = item.Get("user_data")
	}
	if ud.IsArray() {
		arr := ud.Array()
		if len(arr) == 0 {
			return ""
		}
		ud = arr[0]
	}
	return truthy(ud)
}

func systemComment(c gjson.Result) string {
	if c.IsObject() {
		return firstString(c, "comment", "text")
	}
	if c.Type == gjson.String {
		return c.Str
	}
	return ""
}

// attachmentURL prefers the flat *_url field and falls back to the object form.
func attachmentURL(bi gjson.Result, flat, object string) string {
	if u := truthy(bi.Get(flat)); u != "" {
		return u
	}
	obj := bi.Get(object)
	if obj.IsObject() {
		return truthy(obj.Get("url"))
	}
	return truthy(obj)
}

// firstString returns the first truthy value among paths.
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := truthy(r.Get(p)); s != "" {
			return s
		}
	}
	return ""
}

// truthy stringifies r, treating missing, null, false, zero and empty string
// as absent.
func truthy(r gjson.Result) string {
	switch r.Type {
	case gjson.Null, gjson.False:
		return ""
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.String()
	case gjson.String:
		return r.Str
	case gjson.True:
		return "true"
	default:
		if !r.Exists() {
			return ""
		}
		return r.String()
	}
}

// rawString keeps every present value, including zero, so location cells can
// distinguish a literal "null" string from a missing field.
func rawString(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	default:
		return r.String()
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
