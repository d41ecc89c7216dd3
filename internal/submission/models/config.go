package models

// FormType controls how a submission treats prior responses.
type FormType string

const (
	FormDefault  FormType = "default"
	FormEdit     FormType = "edit"
	FormReadOnly FormType = "read-only"
)

func (t FormType) IsEdit() bool     { return t == FormEdit }
func (t FormType) IsReadOnly() bool { return t == FormReadOnly }

// GroupResourceConfig names the group a submission updates and what to do
// with it.
type GroupResourceConfig struct {
	GroupIdentifier                string       `json:"groupIdentifier" yaml:"groupIdentifier"`
	MemberResourceType             ResourceType `json:"memberResourceType,omitempty" yaml:"memberResourceType"`
	ManagingEntityRelationshipCode string       `json:"managingEntityRelationshipCode,omitempty" yaml:"managingEntityRelationshipCode"`
	RemoveMember                   bool         `json:"removeMember,omitempty" yaml:"removeMember"`
	RemoveGroup                    bool         `json:"removeGroup,omitempty" yaml:"removeGroup"`
	DeactivateMembers              bool         `json:"deactivateMembers,omitempty" yaml:"deactivateMembers"`
}

// UniqueIDAssignment retires the answer to LinkID from the pool group PoolID.
type UniqueIDAssignment struct {
	PoolID string `json:"poolId" yaml:"poolId"`
	LinkID string `json:"linkId" yaml:"linkId"`
}

// SubmissionConfig is the per-form configuration of a submission.
type SubmissionConfig struct {
	ID                  string                  `json:"id" yaml:"id"`
	TemplateID          string                  `json:"templateId" yaml:"templateId"`
	Type                FormType                `json:"type,omitempty" yaml:"type"`
	ResourceType        ResourceType            `json:"resourceType,omitempty" yaml:"resourceType"`
	ResourceIdentifier  string                  `json:"resourceIdentifier,omitempty" yaml:"resourceIdentifier"`
	RequireValid        bool                    `json:"requireValid,omitempty" yaml:"requireValid"`
	GroupResource       *GroupResourceConfig    `json:"groupResource,omitempty" yaml:"groupResource"`
	PlanDefinitions     []string                `json:"planDefinitions,omitempty" yaml:"planDefinitions"`
	Libraries           []string                `json:"libraries,omitempty" yaml:"libraries"`
	IdentityExpressions map[ResourceType]string `json:"identityExpressions,omitempty" yaml:"identityExpressions"`
	UniqueIDAssignment  *UniqueIDAssignment     `json:"uniqueIdAssignment,omitempty" yaml:"uniqueIdAssignment"`
	LinkageCode         string                  `json:"linkageCode,omitempty" yaml:"linkageCode"`
	RemoveResource      bool                    `json:"removeResource,omitempty" yaml:"removeResource"`
}

// ExplicitSubject returns the configured subject reference, if any.
func (c SubmissionConfig) ExplicitSubject() Reference {
	return NewReference(c.ResourceType, c.ResourceIdentifier)
}

// ActionParamType classifies an action parameter.
type ActionParamType string

const (
	ParamPrepopulate      ActionParamType = "PREPOPULATE"
	ParamUpdateDateOnEdit ActionParamType = "UPDATE_DATE_ON_EDIT"
	ParamData             ActionParamType = "PARAMDATA"
)

// ActionParameter is a caller-supplied key/value attached to a submission.
// For UPDATE_DATE_ON_EDIT, Value is the id of a record of ResourceType.
type ActionParameter struct {
	Key          string          `json:"key" yaml:"key"`
	ParamType    ActionParamType `json:"paramType,omitempty" yaml:"paramType"`
	ResourceType ResourceType    `json:"resourceType,omitempty" yaml:"resourceType"`
	Value        string          `json:"value" yaml:"value"`
}
