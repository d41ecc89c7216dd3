package formconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/submission/models"
	"intake/pkg/platform/sentinel"
)

const sample = `
configs:
  - id: household-registration
    templateId: household-reg
    groupResource:
      groupIdentifier: g1
      memberResourceType: Person
      managingEntityRelationshipCode: household-head
    identityExpressions:
      Person: identifiers.0.value
    planDefinitions: [anc-visits]
    libraries: [bmi]
    linkageCode: household
  - id: household-edit
    templateId: household-reg
    type: edit
    resourceType: Group
    resourceIdentifier: g1
    uniqueIdAssignment:
      poolId: pool-1
      linkId: assigned-id
`

func TestLoad(t *testing.T) {
	reg, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"household-edit", "household-registration"}, reg.IDs())

	cfg, err := reg.Get("household-registration")
	require.NoError(t, err)
	assert.Equal(t, models.FormDefault, cfg.Type)
	assert.Equal(t, "g1", cfg.GroupResource.GroupIdentifier)
	assert.Equal(t, models.TypePerson, cfg.GroupResource.MemberResourceType)
	assert.Equal(t, "identifiers.0.value", cfg.IdentityExpressions[models.TypePerson])
	assert.Equal(t, []string{"anc-visits"}, cfg.PlanDefinitions)

	edit, err := reg.Get("household-edit")
	require.NoError(t, err)
	assert.True(t, edit.Type.IsEdit())
	assert.Equal(t, models.Reference("Group/g1"), edit.ExplicitSubject())
	assert.Equal(t, "assigned-id", edit.UniqueIDAssignment.LinkID)

	assert.Len(t, reg.ForTemplate("household-reg"), 2)
	assert.Empty(t, reg.ForTemplate("other"))

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestLoadRejectsInvalidConfigs(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"missing id", "configs:\n  - templateId: t\n", "id is required"},
		{"missing template", "configs:\n  - id: a\n", "templateId is required"},
		{"duplicate id", "configs:\n  - {id: a, templateId: t}\n  - {id: a, templateId: t}\n", "duplicate id"},
		{"unknown type", "configs:\n  - {id: a, templateId: t, type: wizard}\n", "unknown type"},
		{"half subject", "configs:\n  - {id: a, templateId: t, resourceType: Person}\n", "must be set together"},
		{"ineligible member", "configs:\n  - id: a\n    templateId: t\n    groupResource: {groupIdentifier: g, memberResourceType: RelatedPerson}\n", "cannot join groups"},
		{"incomplete pool", "configs:\n  - id: a\n    templateId: t\n    uniqueIdAssignment: {poolId: p}\n", "needs poolId and linkId"},
		{"unknown key", "configs:\n  - {id: a, templateId: t, colour: red}\n", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path yields empty registry", func(t *testing.T) {
		reg, err := LoadFile("")
		require.NoError(t, err)
		assert.Zero(t, reg.Len())
	})

	t.Run("reads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "configs.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
		reg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("empty document", func(t *testing.T) {
		reg, err := Load(strings.NewReader(""))
		require.NoError(t, err)
		assert.Zero(t, reg.Len())
	})
}
