package models

import dErrors "intake/pkg/domain-errors"

// Outcome reports one post-commit unit of work: a library evaluation or a plan
// generation. An empty Code means it succeeded.
type Outcome struct {
	Ref     string
	Code    dErrors.Code
	Records []Reference
	Err     error
}

func (o Outcome) Succeeded() bool {
	return o.Code == ""
}

// Report collects the outcomes of one post-commit step in input order.
type Report struct {
	Outcomes []Outcome
}

// Persisted lists every record written, including records written before an
// outcome failed.
func (r Report) Persisted() []Reference {
	var out []Reference
	for _, o := range r.Outcomes {
		out = append(out, o.Records...)
	}
	return out
}

// Warnings converts failed outcomes into warnings. Failures carrying
// CodeEngineFailure are reported under failureCode.
func (r Report) Warnings(failureCode dErrors.Code) []Warning {
	var out []Warning
	for _, o := range r.Outcomes {
		switch o.Code {
		case "":
			continue
		case dErrors.CodeEngineFailure:
			out = append(out, NewWarning(failureCode, o.Ref, o.Err))
		default:
			out = append(out, NewWarning(o.Code, o.Ref, o.Err))
		}
	}
	return out
}
