// Package formconfig loads per-form submission configurations from YAML.
//
// A configuration file lists configs under a top-level key:
//
//	configs:
//	  - id: household-registration
//	    templateId: household-reg
//	    type: default
//	    groupResource:
//	      groupIdentifier: g1
//	      memberResourceType: Person
package formconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"intake/internal/submission/models"
	"intake/pkg/platform/sentinel"
)

type document struct {
	Configs []models.SubmissionConfig `yaml:"configs"`
}

// Registry is an immutable set of configs keyed by id.
type Registry struct {
	byID map[string]models.SubmissionConfig
}

// Load parses and validates a configuration document. Unknown keys are
// rejected.
func Load(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse submission configs: %w", err)
	}

	reg := &Registry{byID: make(map[string]models.SubmissionConfig, len(doc.Configs))}
	for i, cfg := range doc.Configs {
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("config %d (%q): %w", i, cfg.ID, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("config %q: duplicate id", cfg.ID)
		}
		if cfg.Type == "" {
			cfg.Type = models.FormDefault
		}
		reg.byID[cfg.ID] = cfg
	}
	return reg, nil
}

// LoadFile loads the registry from path. An empty path yields an empty
// registry.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return &Registry{byID: map[string]models.SubmissionConfig{}}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open submission configs: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func validate(cfg models.SubmissionConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.TemplateID == "" {
		return errors.New("templateId is required")
	}
	switch cfg.Type {
	case "", models.FormDefault, models.FormEdit, models.FormReadOnly:
	default:
		return fmt.Errorf("unknown type %q", cfg.Type)
	}
	if (cfg.ResourceType == "") != (cfg.ResourceIdentifier == "") {
		return errors.New("resourceType and resourceIdentifier must be set together")
	}
	if g := cfg.GroupResource; g != nil {
		if g.GroupIdentifier == "" {
			return errors.New("groupResource.groupIdentifier is required")
		}
		if g.MemberResourceType != "" && !g.MemberResourceType.IsMemberEligible() {
			return fmt.Errorf("groupResource.memberResourceType %q cannot join groups", g.MemberResourceType)
		}
	}
	if u := cfg.UniqueIDAssignment; u != nil && (u.PoolID == "" || u.LinkID == "") {
		return errors.New("uniqueIdAssignment needs poolId and linkId")
	}
	return nil
}

// Get returns the config with id or sentinel.ErrNotFound.
func (r *Registry) Get(id string) (models.SubmissionConfig, error) {
	cfg, ok := r.byID[id]
	if !ok {
		return models.SubmissionConfig{}, fmt.Errorf("submission config %q: %w", id, sentinel.ErrNotFound)
	}
	return cfg, nil
}

// ForTemplate lists the configs bound to templateID, ordered by id.
func (r *Registry) ForTemplate(templateID string) []models.SubmissionConfig {
	var out []models.SubmissionConfig
	for _, cfg := range r.byID {
		if cfg.TemplateID == templateID {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs lists every config id in order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	return len(r.byID)
}
