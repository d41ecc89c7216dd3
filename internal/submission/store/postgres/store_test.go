package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
)

func TestContainmentDoc(t *testing.T) {
	t.Run("empty query has no containment filter", func(t *testing.T) {
		doc, err := containmentDoc(ports.Query{Type: models.TypePerson, Subject: "Person/p1"})
		require.NoError(t, err)
		assert.Empty(t, doc)
	})

	t.Run("tag, template and linkage", func(t *testing.T) {
		tag := models.OrganizationTag("org-1")
		doc, err := containmentDoc(ports.Query{
			Tag:      &tag,
			Template: "FormTemplate/household",
			Linkage:  &models.Link{Code: "household-location", Target: "Group/g1"},
		})
		require.NoError(t, err)

		assert.Equal(t, models.SystemOrganizationTag, gjson.Get(doc, "meta.tags.0.system").String())
		assert.Equal(t, "org-1", gjson.Get(doc, "meta.tags.0.code").String())
		assert.Equal(t, "FormTemplate/household", gjson.Get(doc, "template").String())
		assert.Equal(t, "Group/g1", gjson.Get(doc, "links.0.target").String())
	})
}
