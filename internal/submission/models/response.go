package models

import (
	"fmt"
	"time"

	"intake/pkg/platform/sentinel"
)

// ResponseStatus is the lifecycle state of a form response.
type ResponseStatus string

const (
	StatusInProgress ResponseStatus = "in-progress"
	StatusCompleted  ResponseStatus = "completed"
	StatusStopped    ResponseStatus = "stopped"
)

// CanTransition reports whether a response in s may move to next. Completed
// may be re-entered by an edit; stopped is terminal.
func (s ResponseStatus) CanTransition(next ResponseStatus) bool {
	switch s {
	case "", StatusInProgress:
		return next == StatusInProgress || next == StatusCompleted || next == StatusStopped
	case StatusCompleted:
		return next == StatusCompleted
	default:
		return false
	}
}

// Answer holds exactly one typed value, optionally with nested items.
type Answer struct {
	String    *string        `json:"valueString,omitempty"`
	Integer   *int64         `json:"valueInteger,omitempty"`
	Decimal   *float64       `json:"valueDecimal,omitempty"`
	Boolean   *bool          `json:"valueBoolean,omitempty"`
	Date      *string        `json:"valueDate,omitempty"`
	Coding    *Coding        `json:"valueCoding,omitempty"`
	Reference *Reference     `json:"valueReference,omitempty"`
	Items     []ResponseItem `json:"items,omitempty"`
}

// Value returns the populated value or nil.
func (a Answer) Value() any {
	switch {
	case a.String != nil:
		return *a.String
	case a.Integer != nil:
		return *a.Integer
	case a.Decimal != nil:
		return *a.Decimal
	case a.Boolean != nil:
		return *a.Boolean
	case a.Date != nil:
		return *a.Date
	case a.Coding != nil:
		return *a.Coding
	case a.Reference != nil:
		return *a.Reference
	}
	return nil
}

func (a Answer) HasValue() bool {
	return a.Value() != nil
}

// ValueCount counts populated value fields; a well-formed answer has one.
func (a Answer) ValueCount() int {
	n := 0
	for _, set := range []bool{
		a.String != nil, a.Integer != nil, a.Decimal != nil, a.Boolean != nil,
		a.Date != nil, a.Coding != nil, a.Reference != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Text renders the value as a string for path-based extraction.
func (a Answer) Text() string {
	switch v := a.Value().(type) {
	case nil:
		return ""
	case string:
		return v
	case Coding:
		return v.Code
	case Reference:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// ResponseItem answers one template item.
type ResponseItem struct {
	LinkID  string         `json:"linkId"`
	Text    string         `json:"text,omitempty"`
	Answers []Answer       `json:"answers,omitempty"`
	Items   []ResponseItem `json:"items,omitempty"`
}

// FormResponse is one user's answers to a template.
type FormResponse struct {
	Base
	Template  Reference      `json:"template,omitempty"`
	Status    ResponseStatus `json:"status,omitempty"`
	Authored  time.Time      `json:"authored,omitzero"`
	Subject   Reference      `json:"subject,omitempty"`
	Items     []ResponseItem `json:"items,omitempty"`
	Contained []Ledger       `json:"contained,omitempty"`
}

// NewFormResponse builds an empty in-progress response.
func NewFormResponse(id string) *FormResponse {
	return &FormResponse{
		Base:   Base{Type: TypeFormResponse, ID: id},
		Status: StatusInProgress,
	}
}

func (r *FormResponse) SubjectReference() Reference { return r.Subject }
func (r *FormResponse) AssignSubject(ref Reference) { r.Subject = ref }

// Transition moves the response to next or returns sentinel.ErrInvalidState.
func (r *FormResponse) Transition(next ResponseStatus) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("response %s: %s -> %s: %w", r.ID, r.Status, next, sentinel.ErrInvalidState)
	}
	r.Status = next
	return nil
}

// HasAnswers reports whether any answer anywhere in the tree has a value.
func (r *FormResponse) HasAnswers() bool {
	return anyAnswered(r.Items)
}

func anyAnswered(items []ResponseItem) bool {
	for _, it := range items {
		for _, a := range it.Answers {
			if a.HasValue() || anyAnswered(a.Items) {
				return true
			}
		}
		if anyAnswered(it.Items) {
			return true
		}
	}
	return false
}

// FindItem returns the first item with linkID, searching depth first.
func (r *FormResponse) FindItem(linkID string) (ResponseItem, bool) {
	return findItem(r.Items, linkID)
}

func findItem(items []ResponseItem, linkID string) (ResponseItem, bool) {
	for _, it := range items {
		if it.LinkID == linkID {
			return it, true
		}
		if found, ok := findItem(it.Items, linkID); ok {
			return found, true
		}
		for _, a := range it.Answers {
			if found, ok := findItem(a.Items, linkID); ok {
				return found, true
			}
		}
	}
	return ResponseItem{}, false
}

// AnswerText returns the first answer to linkID rendered as text.
func (r *FormResponse) AnswerText(linkID string) string {
	item, ok := r.FindItem(linkID)
	if !ok || len(item.Answers) == 0 {
		return ""
	}
	return item.Answers[0].Text()
}

// Walk visits every item depth first.
func (r *FormResponse) Walk(fn func(item ResponseItem)) {
	walk(r.Items, fn)
}

func walk(items []ResponseItem, fn func(ResponseItem)) {
	for _, it := range items {
		fn(it)
		walk(it.Items, fn)
		for _, a := range it.Answers {
			walk(a.Items, fn)
		}
	}
}

// LatestLedger returns the most recently appended ledger.
func (r *FormResponse) LatestLedger() (Ledger, bool) {
	for i := len(r.Contained) - 1; i >= 0; i-- {
		if r.Contained[i].Title == LedgerTitle {
			return r.Contained[i], true
		}
	}
	return Ledger{}, false
}

// AppendLedger records one submission event. Prior ledgers are kept.
func (r *FormResponse) AppendLedger(l Ledger) {
	r.Contained = append(r.Contained, l)
}
