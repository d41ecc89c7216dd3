// Package mapping derives candidate records from a form response.
//
// Definition mode copies answers into record JSON by path. Transform mode
// resolves the template's transform and hands it to an injected Transformer.
package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	dErrors "intake/pkg/domain-errors"
)

// Transformer applies resolved transform content to a response.
type Transformer interface {
	Transform(ctx context.Context, content string, resp *models.FormResponse, subject models.Reference) (models.Bundle, error)
}

// Engine implements ports.MappingEngine.
type Engine struct {
	transformer          Transformer
	definitionTransforms bool
	newID                func() string
}

type Option func(*Engine)

func WithTransformer(t Transformer) Option {
	return func(e *Engine) {
		e.transformer = t
	}
}

// WithDefinitionTransforms reads transform content as stored extraction
// definitions; see DefinitionTransformer.
func WithDefinitionTransforms() Option {
	return func(e *Engine) {
		e.definitionTransforms = true
	}
}

// WithIDGenerator replaces uuid generation for records without a mapped id.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	if e.definitionTransforms && e.transformer == nil {
		e.transformer = NewDefinitionTransformer(e)
	}
	return e
}

func (e *Engine) Extract(ctx context.Context, tmpl models.FormTemplate, resp *models.FormResponse, mc ports.MappingContext) (models.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return models.Bundle{}, err
	}
	switch tmpl.Extraction.Mode {
	case "", models.ExtractionNone:
		return models.Bundle{}, nil
	case models.ExtractionByDefinition:
		return e.FromDefinitions(tmpl.Extraction.Definitions, resp, mc.Subject)
	case models.ExtractionTransform:
		return e.transform(ctx, tmpl, resp, mc)
	default:
		return models.Bundle{}, dErrors.New(dErrors.CodeNotConfigured, fmt.Sprintf("unknown extraction mode %q", tmpl.Extraction.Mode))
	}
}

func (e *Engine) transform(ctx context.Context, tmpl models.FormTemplate, resp *models.FormResponse, mc ports.MappingContext) (models.Bundle, error) {
	ref := tmpl.Extraction.TransformRef
	if ref == "" {
		return models.Bundle{}, dErrors.New(dErrors.CodeNotConfigured, "template has no transform reference")
	}
	if e.transformer == nil || mc.Transforms == nil {
		return models.Bundle{}, dErrors.New(dErrors.CodeNotConfigured, "transform extraction is not configured")
	}
	content, err := mc.Transforms.ResolveTransform(ctx, ref)
	if err != nil {
		return models.Bundle{}, fmt.Errorf("resolve transform %s: %w", ref, err)
	}
	bundle, err := e.transformer.Transform(ctx, content, resp, mc.Subject)
	if err != nil {
		return models.Bundle{}, fmt.Errorf("apply transform %s: %w", ref, err)
	}
	for _, r := range bundle.Entries {
		if r.ResourceID() == "" {
			r.Identify(e.newID())
		}
	}
	return bundle, nil
}

// FromDefinitions builds one record per definition that received at least one
// answer. A path with a "-1" segment appends every answer of a repeating item;
// any other path takes the first answer only.
func (e *Engine) FromDefinitions(defs []models.ExtractionDefinition, resp *models.FormResponse, subject models.Reference) (models.Bundle, error) {
	var bundle models.Bundle
	for _, def := range defs {
		r, err := e.fromDefinition(def, resp)
		if err != nil {
			return models.Bundle{}, err
		}
		if r == nil {
			continue
		}
		if def.LinkSubject && !subject.IsZero() {
			if sb, ok := r.(models.SubjectBound); ok {
				sb.AssignSubject(subject)
			}
		}
		bundle.Add(r)
	}
	return bundle, nil
}

func (e *Engine) fromDefinition(def models.ExtractionDefinition, resp *models.FormResponse) (models.Resource, error) {
	doc, err := sjson.Set("", "resourceType", string(def.ResourceType))
	if err != nil {
		return nil, err
	}
	answered := false
	for _, field := range def.Fields {
		item, ok := resp.FindItem(field.LinkID)
		if !ok {
			continue
		}
		appending := appendsAnswers(field.Path)
		written := false
		for _, a := range item.Answers {
			if !a.HasValue() {
				continue
			}
			if written && !appending {
				break
			}
			doc, err = sjson.Set(doc, field.Path, jsonValue(a))
			if err != nil {
				return nil, fmt.Errorf("map %s to %s.%s: %w", field.LinkID, def.ResourceType, field.Path, err)
			}
			written, answered = true, true
		}
	}
	if !answered {
		return nil, nil
	}
	r, err := models.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", def.ResourceType, err)
	}
	if r.ResourceID() == "" {
		r.Identify(e.newID())
	}
	return r, nil
}

// appendsAnswers reports whether path holds an sjson append segment.
func appendsAnswers(path string) bool {
	return strings.Contains("."+path+".", ".-1.")
}

func jsonValue(a models.Answer) any {
	switch v := a.Value().(type) {
	case models.Reference:
		return string(v)
	default:
		return v
	}
}
