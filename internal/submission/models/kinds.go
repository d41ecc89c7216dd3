package models

// Person is an individual record, typically the form subject.
type Person struct {
	Base
	Name                 string       `json:"name,omitempty"`
	Identifiers          []Identifier `json:"identifiers,omitempty"`
	Active               *bool        `json:"active,omitempty"`
	ManagingOrganization Reference    `json:"managingOrganization,omitempty"`
	GeneralPractitioner  []Reference  `json:"generalPractitioner,omitempty"`
}

func (p *Person) ExternalIdentifiers() []Identifier       { return p.Identifiers }
func (p *Person) SetExternalIdentifiers(ids []Identifier) { p.Identifiers = ids }
func (p *Person) IsActive() bool                          { return isActive(p.Active) }
func (p *Person) Deactivate() bool                        { return deactivate(&p.Active) }

func (p *Person) AssignOrganization(ref Reference) bool {
	if ref.IsZero() || !p.ManagingOrganization.IsZero() {
		return false
	}
	p.ManagingOrganization = ref
	return true
}

func (p *Person) AssignPractitioner(ref Reference) bool {
	if ref.IsZero() || containsRef(p.GeneralPractitioner, ref) {
		return false
	}
	p.GeneralPractitioner = append(p.GeneralPractitioner, ref)
	return true
}

// RelatedPerson is a person related to a subject, such as a caregiver.
type RelatedPerson struct {
	Base
	Name          string       `json:"name,omitempty"`
	Identifiers   []Identifier `json:"identifiers,omitempty"`
	Active        *bool        `json:"active,omitempty"`
	Patient       Reference    `json:"patient,omitempty"`
	Relationships []Coding     `json:"relationships,omitempty"`
}

func (r *RelatedPerson) ExternalIdentifiers() []Identifier       { return r.Identifiers }
func (r *RelatedPerson) SetExternalIdentifiers(ids []Identifier) { r.Identifiers = ids }
func (r *RelatedPerson) SubjectReference() Reference             { return r.Patient }
func (r *RelatedPerson) AssignSubject(ref Reference)             { r.Patient = ref }
func (r *RelatedPerson) IsActive() bool                          { return isActive(r.Active) }
func (r *RelatedPerson) Deactivate() bool                        { return deactivate(&r.Active) }

// HasRelationship reports whether any relationship coding carries code.
func (r *RelatedPerson) HasRelationship(code string) bool {
	if code == "" {
		return false
	}
	for _, c := range r.Relationships {
		if c.Code == code {
			return true
		}
	}
	return false
}

// GroupMember is one membership entry. Inactive entries are kept for history.
type GroupMember struct {
	Entity   Reference `json:"entity"`
	Inactive bool      `json:"inactive,omitempty"`
}

// PoolEntry is one value of a unique id pool.
type PoolEntry struct {
	Value    string `json:"value"`
	Excluded bool   `json:"excluded,omitempty"`
}

// IDPool is a finite set of assignable identifiers. Cursor counts retired
// entries.
type IDPool struct {
	Entries []PoolEntry `json:"entries"`
	Cursor  int         `json:"cursor"`
}

// Group is a grouping construct: a household, family or id pool.
type Group struct {
	Base
	Name           string        `json:"name,omitempty"`
	Active         *bool         `json:"active,omitempty"`
	Code           *Coding       `json:"code,omitempty"`
	Members        []GroupMember `json:"members,omitempty"`
	ManagingEntity Reference     `json:"managingEntity,omitempty"`
	Pool           *IDPool       `json:"pool,omitempty"`
}

func (g *Group) IsActive() bool   { return isActive(g.Active) }
func (g *Group) Deactivate() bool { return deactivate(&g.Active) }

func (g *Group) AssignOrganization(ref Reference) bool {
	if ref.IsZero() || !g.ManagingEntity.IsZero() {
		return false
	}
	g.ManagingEntity = ref
	return true
}

// HasMember reports whether ref is listed, active or not.
func (g *Group) HasMember(ref Reference) bool {
	for _, m := range g.Members {
		if m.Entity == ref {
			return true
		}
	}
	return false
}

// AddMember appends ref. The group itself and existing members are refused.
func (g *Group) AddMember(ref Reference) bool {
	if ref.IsZero() || ref == g.AsReference() || g.HasMember(ref) {
		return false
	}
	g.Members = append(g.Members, GroupMember{Entity: ref})
	return true
}

// RemoveMember marks ref inactive. It reports false when ref is absent or
// already inactive.
func (g *Group) RemoveMember(ref Reference) bool {
	for i := range g.Members {
		if g.Members[i].Entity == ref && !g.Members[i].Inactive {
			g.Members[i].Inactive = true
			return true
		}
	}
	return false
}

// ActiveMembers lists the references of members not marked inactive.
func (g *Group) ActiveMembers() []Reference {
	var out []Reference
	for _, m := range g.Members {
		if !m.Inactive {
			out = append(out, m.Entity)
		}
	}
	return out
}

// RetireID excludes the first live pool entry equal to value, advances the
// cursor and deactivates the group once every entry is retired. It reports
// false when nothing changed.
func (g *Group) RetireID(value string) bool {
	if g.Pool == nil || value == "" {
		return false
	}
	for i := range g.Pool.Entries {
		e := &g.Pool.Entries[i]
		if e.Excluded || e.Value != value {
			continue
		}
		e.Excluded = true
		g.Pool.Cursor++
		if g.Pool.Cursor >= len(g.Pool.Entries) {
			g.Deactivate()
		}
		return true
	}
	return false
}

// NextAvailableID returns the first entry not yet excluded.
func (g *Group) NextAvailableID() (string, bool) {
	if g.Pool == nil || !g.IsActive() {
		return "", false
	}
	for _, e := range g.Pool.Entries {
		if !e.Excluded {
			return e.Value, true
		}
	}
	return "", false
}

// Encounter is a contact between a subject and a service provider.
type Encounter struct {
	Base
	Status          string      `json:"status,omitempty"`
	Subject         Reference   `json:"subject,omitempty"`
	ServiceProvider Reference   `json:"serviceProvider,omitempty"`
	Participants    []Reference `json:"participants,omitempty"`
}

func (e *Encounter) SubjectReference() Reference { return e.Subject }
func (e *Encounter) AssignSubject(ref Reference) { e.Subject = ref }

func (e *Encounter) AssignOrganization(ref Reference) bool {
	if ref.IsZero() || !e.ServiceProvider.IsZero() {
		return false
	}
	e.ServiceProvider = ref
	return true
}

func (e *Encounter) AssignPractitioner(ref Reference) bool {
	if ref.IsZero() || containsRef(e.Participants, ref) {
		return false
	}
	e.Participants = append(e.Participants, ref)
	return true
}

// Location is a physical place; locations may nest through PartOf.
type Location struct {
	Base
	Name                 string    `json:"name,omitempty"`
	Active               *bool     `json:"active,omitempty"`
	ManagingOrganization Reference `json:"managingOrganization,omitempty"`
	PartOf               Reference `json:"partOf,omitempty"`
}

func (l *Location) IsActive() bool   { return isActive(l.Active) }
func (l *Location) Deactivate() bool { return deactivate(&l.Active) }

func (l *Location) AssignOrganization(ref Reference) bool {
	if ref.IsZero() || !l.ManagingOrganization.IsZero() {
		return false
	}
	l.ManagingOrganization = ref
	return true
}

// Record is the generic kind for types without dedicated fields.
type Record struct {
	Base
	Subject Reference `json:"subject,omitempty"`
}

func (r *Record) SubjectReference() Reference { return r.Subject }
func (r *Record) AssignSubject(ref Reference) { r.Subject = ref }
