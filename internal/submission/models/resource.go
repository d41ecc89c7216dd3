package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ResourceType is the explicit type tag carried by every record.
type ResourceType string

const (
	TypePerson            ResourceType = "Person"
	TypeRelatedPerson     ResourceType = "RelatedPerson"
	TypeGroup             ResourceType = "Group"
	TypeEncounter         ResourceType = "Encounter"
	TypeLocation          ResourceType = "Location"
	TypeOrganization      ResourceType = "Organization"
	TypePractitioner      ResourceType = "Practitioner"
	TypePractitionerRole  ResourceType = "PractitionerRole"
	TypeCareTeam          ResourceType = "CareTeam"
	TypeDevice            ResourceType = "Device"
	TypeHealthcareService ResourceType = "HealthcareService"
	TypeSpecimen          ResourceType = "Specimen"
	TypeObservation       ResourceType = "Observation"
	TypeCondition         ResourceType = "Condition"
	TypeTask              ResourceType = "Task"
	TypeCarePlan          ResourceType = "CarePlan"
	TypeLibrary           ResourceType = "Library"
	TypeTransform         ResourceType = "Transform"
	TypeFormTemplate      ResourceType = "FormTemplate"
	TypeFormResponse      ResourceType = "FormResponse"
)

// Reference points at a record as "Type/id".
type Reference string

// NewReference builds a reference; an empty id yields the zero reference.
func NewReference(t ResourceType, id string) Reference {
	if t == "" || id == "" {
		return ""
	}
	return Reference(string(t) + "/" + id)
}

// Type returns the type segment of the reference.
func (r Reference) Type() ResourceType {
	t, _, _ := strings.Cut(string(r), "/")
	return ResourceType(t)
}

// ID returns the id segment of the reference.
func (r Reference) ID() string {
	_, id, _ := strings.Cut(string(r), "/")
	return id
}

func (r Reference) IsZero() bool {
	return r == ""
}

func (r Reference) String() string {
	return string(r)
}

// Coding is a (system, code) pair with an optional display.
type Coding struct {
	System  string `json:"system,omitempty" yaml:"system"`
	Code    string `json:"code,omitempty" yaml:"code"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// Matches compares codings by (system, code).
func (c Coding) Matches(other Coding) bool {
	return c.System == other.System && c.Code == other.Code
}

// Identifier is an external identifier of a record.
type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// Link indexes a record under a linkage code pointing at another record.
type Link struct {
	Code   string    `json:"code"`
	Target Reference `json:"target"`
}

// Meta is the metadata shared by every record kind. Version is owned by the
// store: zero means an unconditional write, anything else is checked.
type Meta struct {
	Version     int64     `json:"version,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitzero"`
	Tags        []Coding  `json:"tags,omitempty"`
}

// AddTag appends c unless a tag with the same (system, code) exists.
func (m *Meta) AddTag(c Coding) bool {
	for _, t := range m.Tags {
		if t.Matches(c) {
			return false
		}
	}
	m.Tags = append(m.Tags, c)
	return true
}

// TagsWithSystem returns the tags issued under system.
func (m *Meta) TagsWithSystem(system string) []Coding {
	var out []Coding
	for _, t := range m.Tags {
		if t.System == system {
			out = append(out, t)
		}
	}
	return out
}

// Resource is the capability set every record kind implements.
type Resource interface {
	ResourceType() ResourceType
	ResourceID() string
	Identify(id string)
	Metadata() *Meta
	ApplyTags(tags ...Coding) int
	AsReference() Reference
	HasLink(code string, target Reference) bool
	AddLink(code string, target Reference) bool
}

// SubjectBound is implemented by kinds that point at a subject record.
type SubjectBound interface {
	SubjectReference() Reference
	AssignSubject(ref Reference)
}

// OrganizationOwned is implemented by kinds carrying an owning organization.
// Assign reports whether the reference was added.
type OrganizationOwned interface {
	AssignOrganization(ref Reference) bool
}

// PractitionerOwned is implemented by kinds carrying a responsible practitioner.
type PractitionerOwned interface {
	AssignPractitioner(ref Reference) bool
}

// Deactivatable is implemented by kinds that support soft deletion.
type Deactivatable interface {
	IsActive() bool
	Deactivate() bool
}

// Identified is implemented by kinds carrying external identifiers.
type Identified interface {
	ExternalIdentifiers() []Identifier
	SetExternalIdentifiers(ids []Identifier)
}

// Base holds the fields common to all kinds. Attributes keeps kind-specific
// payload that has no typed field.
type Base struct {
	Type       ResourceType   `json:"resourceType"`
	ID         string         `json:"id,omitempty"`
	Meta       Meta           `json:"meta"`
	Links      []Link         `json:"links,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (b *Base) ResourceType() ResourceType { return b.Type }
func (b *Base) ResourceID() string         { return b.ID }
func (b *Base) Identify(id string)         { b.ID = id }
func (b *Base) Metadata() *Meta            { return &b.Meta }
func (b *Base) AsReference() Reference     { return NewReference(b.Type, b.ID) }

func (b *Base) ApplyTags(tags ...Coding) int {
	added := 0
	for _, t := range tags {
		if b.Meta.AddTag(t) {
			added++
		}
	}
	return added
}

func (b *Base) HasLink(code string, target Reference) bool {
	for _, l := range b.Links {
		if l.Code == code && l.Target == target {
			return true
		}
	}
	return false
}

// AddLink indexes the record under (code, target) unless already linked.
func (b *Base) AddLink(code string, target Reference) bool {
	if code == "" || target.IsZero() || b.HasLink(code, target) {
		return false
	}
	b.Links = append(b.Links, Link{Code: code, Target: target})
	return true
}

// LinkTargets returns the targets linked under code.
func (b *Base) LinkTargets(code string) []Reference {
	var out []Reference
	for _, l := range b.Links {
		if l.Code == code {
			out = append(out, l.Target)
		}
	}
	return out
}

// Attribute returns a payload attribute as a string.
func (b *Base) Attribute(key string) string {
	if b.Attributes == nil {
		return ""
	}
	if v, ok := b.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// Encode serializes a record with its type tag.
func Encode(r Resource) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.ResourceType(), err)
	}
	return data, nil
}

// Decode selects the record kind from the "resourceType" tag. Types without a
// dedicated kind decode into *Record.
func Decode(data []byte) (Resource, error) {
	tag := gjson.GetBytes(data, "resourceType")
	if !tag.Exists() || tag.String() == "" {
		return nil, fmt.Errorf("decode record: missing resourceType")
	}
	var r Resource
	switch ResourceType(tag.String()) {
	case TypePerson:
		r = &Person{}
	case TypeRelatedPerson:
		r = &RelatedPerson{}
	case TypeGroup:
		r = &Group{}
	case TypeEncounter:
		r = &Encounter{}
	case TypeLocation:
		r = &Location{}
	case TypeFormResponse:
		r = &FormResponse{}
	default:
		r = &Record{}
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag.String(), err)
	}
	return r, nil
}

// Clone deep-copies a record through its encoded form.
func Clone(r Resource) (Resource, error) {
	data, err := Encode(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// New builds an empty record of the given type.
func New(t ResourceType, id string) Resource {
	base := Base{Type: t, ID: id}
	switch t {
	case TypePerson:
		return &Person{Base: base}
	case TypeRelatedPerson:
		return &RelatedPerson{Base: base}
	case TypeGroup:
		return &Group{Base: base}
	case TypeEncounter:
		return &Encounter{Base: base}
	case TypeLocation:
		return &Location{Base: base}
	case TypeFormResponse:
		return &FormResponse{Base: base}
	default:
		return &Record{Base: base}
	}
}

func containsRef(refs []Reference, ref Reference) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

func isActive(active *bool) bool {
	return active == nil || *active
}

func deactivate(active **bool) bool {
	if !isActive(*active) {
		return false
	}
	off := false
	*active = &off
	return true
}

var memberEligible = map[ResourceType]struct{}{
	TypeCareTeam:          {},
	TypeDevice:            {},
	TypeGroup:             {},
	TypeHealthcareService: {},
	TypeLocation:          {},
	TypeOrganization:      {},
	TypePerson:            {},
	TypePractitioner:      {},
	TypePractitionerRole:  {},
	TypeSpecimen:          {},
}

// IsMemberEligible reports whether records of type t may join a group.
func (t ResourceType) IsMemberEligible() bool {
	_, ok := memberEligible[t]
	return ok
}
