// Package expression evaluates identity expressions against records.
//
// Expressions are gjson paths over the record's JSON form. A leading segment
// naming the record type is optional, so "Person.identifiers.0.value" and
// "identifiers.0.value" select the same value on a Person.
package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"intake/internal/submission/models"
)

var (
	ErrEmptyExpression = errors.New("expression is empty")
	ErrNotScalar       = errors.New("expression must select a scalar value")
)

// Evaluator implements ports.ExpressionEvaluator.
type Evaluator struct{}

func New() *Evaluator {
	return &Evaluator{}
}

// ExtractValue returns the scalar at expression, or "" when the path selects
// nothing.
func (e *Evaluator) ExtractValue(r models.Resource, expression string) (string, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return "", ErrEmptyExpression
	}
	expr = stripTypePrefix(expr, r.ResourceType())

	data, err := models.Encode(r)
	if err != nil {
		return "", err
	}
	res := gjson.GetBytes(data, expr)
	if !res.Exists() {
		return "", nil
	}
	if res.IsArray() || res.IsObject() {
		return "", fmt.Errorf("%q on %s: %w", expression, r.AsReference(), ErrNotScalar)
	}
	return res.String(), nil
}

func stripTypePrefix(expr string, t models.ResourceType) string {
	prefix := string(t) + "."
	if strings.HasPrefix(expr, prefix) {
		return strings.TrimPrefix(expr, prefix)
	}
	return expr
}
