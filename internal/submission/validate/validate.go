// Package validate checks a response's answer tree against its template.
package validate

import (
	"fmt"

	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
)

// IssueCode classifies a structural problem.
type IssueCode string

const (
	IssueUnknownItem      IssueCode = "unknown_item"
	IssueRequired         IssueCode = "required"
	IssueNotRepeatable    IssueCode = "not_repeatable"
	IssueUnexpectedAnswer IssueCode = "unexpected_answer"
	IssueMalformedAnswer  IssueCode = "malformed_answer"
	IssueTypeMismatch     IssueCode = "type_mismatch"
	IssueInvalidOption    IssueCode = "invalid_option"
)

type Issue struct {
	LinkID  string
	Code    IssueCode
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.LinkID, i.Code, i.Message)
}

type Issues []Issue

// Err returns a validation_failed error listing every issue, or nil.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	details := make([]string, 0, len(is))
	for _, i := range is {
		details = append(details, i.String())
	}
	return dErrors.New(dErrors.CodeValidationFailed, fmt.Sprintf("%d structural issue(s)", len(is))).
		WithDetails(details...)
}

// Response validates resp against tmpl. Required items are checked where
// their parent is present.
func Response(tmpl models.FormTemplate, resp *models.FormResponse) Issues {
	var out Issues
	items(tmpl.Items, resp.Items, &out)
	return out
}

func items(tmplItems []models.TemplateItem, respItems []models.ResponseItem, out *Issues) {
	byLink := make(map[string]models.TemplateItem, len(tmplItems))
	for _, ti := range tmplItems {
		byLink[ti.LinkID] = ti
	}

	answered := make(map[string]bool)
	for _, ri := range respItems {
		ti, ok := byLink[ri.LinkID]
		if !ok {
			out.add(ri.LinkID, IssueUnknownItem, "not declared by the template")
			continue
		}
		if ti.Type == models.ItemGroup || ti.Type == models.ItemDisplay {
			if len(ri.Answers) > 0 {
				out.add(ri.LinkID, IssueUnexpectedAnswer, fmt.Sprintf("%s items take no answers", ti.Type))
			}
			items(ti.Items, ri.Items, out)
			answered[ri.LinkID] = len(ri.Items) > 0
			continue
		}
		if len(ri.Answers) > 1 && !ti.Repeats {
			out.add(ri.LinkID, IssueNotRepeatable, fmt.Sprintf("%d answers to a single-answer item", len(ri.Answers)))
		}
		for _, a := range ri.Answers {
			answer(ti, a, out)
			if a.ValueCount() == 1 {
				answered[ri.LinkID] = true
			}
			items(ti.Items, a.Items, out)
		}
	}

	for _, ti := range tmplItems {
		if ti.Required && !answered[ti.LinkID] {
			out.add(ti.LinkID, IssueRequired, "required item has no answer")
		}
	}
}

func answer(ti models.TemplateItem, a models.Answer, out *Issues) {
	if a.ValueCount() != 1 {
		out.add(ti.LinkID, IssueMalformedAnswer, fmt.Sprintf("answer carries %d values", a.ValueCount()))
		return
	}
	if !typeMatches(ti.Type, a) {
		out.add(ti.LinkID, IssueTypeMismatch, fmt.Sprintf("answer does not fit %s", ti.Type))
		return
	}
	if ti.Type == models.ItemChoice && len(ti.Options) > 0 && !optionAllowed(ti.Options, *a.Coding) {
		out.add(ti.LinkID, IssueInvalidOption, fmt.Sprintf("%q is not an offered option", a.Coding.Code))
	}
}

func typeMatches(t models.ItemType, a models.Answer) bool {
	switch t {
	case models.ItemString, models.ItemText:
		return a.String != nil
	case models.ItemInteger:
		return a.Integer != nil
	case models.ItemDecimal:
		return a.Decimal != nil || a.Integer != nil
	case models.ItemBoolean:
		return a.Boolean != nil
	case models.ItemDate, models.ItemDateTime:
		return a.Date != nil
	case models.ItemChoice:
		return a.Coding != nil
	case models.ItemReference:
		return a.Reference != nil
	default:
		return true
	}
}

func optionAllowed(options []models.Coding, c models.Coding) bool {
	for _, o := range options {
		if o.Code == c.Code && (o.System == "" || o.System == c.System) {
			return true
		}
	}
	return false
}

func (is *Issues) add(linkID string, code IssueCode, msg string) {
	*is = append(*is, Issue{LinkID: linkID, Code: code, Message: msg})
}
