package mapping

import (
	"context"
	"encoding/json"
	"fmt"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/pkg/platform/sentinel"
	pstrings "intake/pkg/platform/strings"
)

// DefinitionTransformer treats transform content as a JSON list of extraction
// definitions, so transforms can be stored and versioned as records.
type DefinitionTransformer struct {
	engine *Engine
}

func NewDefinitionTransformer(engine *Engine) *DefinitionTransformer {
	return &DefinitionTransformer{engine: engine}
}

func (t *DefinitionTransformer) Transform(_ context.Context, content string, resp *models.FormResponse, subject models.Reference) (models.Bundle, error) {
	var defs []models.ExtractionDefinition
	if err := json.Unmarshal([]byte(content), &defs); err != nil {
		return models.Bundle{}, fmt.Errorf("parse transform: %w", err)
	}
	return t.engine.FromDefinitions(defs, resp, subject)
}

// TransformContentAttribute is the attribute of a Transform record holding
// its content.
const TransformContentAttribute = "content"

// StoreResolver resolves transforms from Transform records in the store.
type StoreResolver struct {
	store ports.Store
}

func NewStoreResolver(store ports.Store) *StoreResolver {
	return &StoreResolver{store: store}
}

// ResolveTransform accepts a bare id or a "Transform/id" reference.
func (r *StoreResolver) ResolveTransform(ctx context.Context, id string) (string, error) {
	rec, err := r.store.Load(ctx, models.TypeTransform, pstrings.LogicalID(id))
	if err != nil {
		return "", err
	}
	base, ok := rec.(*models.Record)
	if !ok {
		return "", fmt.Errorf("transform %s: unexpected kind %T", id, rec)
	}
	content := base.Attribute(TransformContentAttribute)
	if content == "" {
		return "", fmt.Errorf("transform %s has no content: %w", id, sentinel.ErrNotFound)
	}
	return content, nil
}
