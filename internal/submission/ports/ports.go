// Package ports defines the collaborator interfaces of the submission pipeline.
// Engines and the store are injected by the caller; none are process globals.
package ports

import (
	"context"

	"intake/internal/submission/models"
	"intake/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=../mocks/ports_mock.go -package=mocks

// Query selects records from the store. Zero fields are ignored.
type Query struct {
	Type     models.ResourceType
	Subject  models.Reference
	Tag      *models.Coding
	Template models.Reference
	// Linkage matches records holding a link with this code and target.
	Linkage *models.Link
	Limit   int
}

// Store owns all durable records.
type Store interface {
	// Load returns sentinel.ErrNotFound when the record does not exist.
	Load(ctx context.Context, t models.ResourceType, id string) (models.Resource, error)

	// Upsert writes the record. A zero Meta.Version writes unconditionally; any
	// other version must match the stored one or sentinel.ErrConflict is
	// returned. On success the record carries its new version.
	Upsert(ctx context.Context, r models.Resource) error

	// Search returns matches ordered by LastUpdated, most recent first.
	Search(ctx context.Context, q Query) ([]models.Resource, error)

	// RunInTx executes fn atomically. Calls nested inside fn join the outer
	// transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransformResolver resolves a transform id to its content.
type TransformResolver interface {
	ResolveTransform(ctx context.Context, id string) (string, error)
}

// MappingContext carries what the engine may look up during extraction.
type MappingContext struct {
	Transforms TransformResolver
	Subject    models.Reference
}

// MappingEngine derives candidate records from a response.
type MappingEngine interface {
	Extract(ctx context.Context, tmpl models.FormTemplate, resp *models.FormResponse, mc MappingContext) (models.Bundle, error)
}

// Parameter is one named output of a library evaluation.
type Parameter struct {
	Name  string
	Value string
	// Resource is set when the parameter carries a record.
	Resource models.Resource
	// OutputArtifact marks records that must be persisted.
	OutputArtifact bool
}

// Parameters is the full output of one library evaluation.
type Parameters []Parameter

// LibraryEvaluator runs a rule library against a bundle.
type LibraryEvaluator interface {
	Evaluate(ctx context.Context, library models.Resource, subject models.Reference, bundle models.Bundle) (Parameters, error)
}

// PlanInstance is the output of one plan generation.
type PlanInstance struct {
	Plan      models.Resource
	Resources []models.Resource
}

// PlanGenerator applies a plan template to a subject. It returns
// sentinel.ErrNotFound when the plan template is unknown.
type PlanGenerator interface {
	Generate(ctx context.Context, planTemplateID string, subject models.Reference, bundle models.Bundle) (*PlanInstance, error)
}

// ExpressionEvaluator extracts a single value from a record.
type ExpressionEvaluator interface {
	ExtractValue(r models.Resource, expression string) (string, error)
}

// Locker serializes work on one key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// AuditPublisher emits audit events for submission lifecycle actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
