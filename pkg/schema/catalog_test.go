package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

func TestDefault_EntitiesAndCategories(t *testing.T) {
	c := Default()

	entities := c.Entities()
	require.Len(t, entities, 4)
	assert.Equal(t, "partners", entities[0].Name)

	desc, err := c.Describe("invoices")
	require.NoError(t, err)
	assert.True(t, desc.IsQueryable("state"))
	assert.False(t, desc.IsQueryable("amount_overdue"), "derived fields are not queryable")

	link := desc.Field("partner_id")
	require.NotNil(t, link)
	assert.Equal(t, models.FieldTypeRelation, link.Type)
	assert.Equal(t, "partners", link.RefEntity)
}

func TestCatalog_Resolve(t *testing.T) {
	c := Default()

	tests := []struct {
		input string
		want  string
	}{
		{"partners", "partners"},
		{"customers", "partners"},
		{"Customers", "partners"},
		{"  clienti  ", "partners"},
		{"customer", "partners"}, // singular resolved via plural variant
		{"fatture", "invoices"},
		{"bill", "invoices"},
		{"product", "products"},
		{"ordini", "orders"},
	}
	for _, tt := range tests {
		got, err := c.Resolve(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestCatalog_ResolveUnknown(t *testing.T) {
	c := Default()

	for _, input := range []string{"", "warehouses", "qualcosa"} {
		_, err := c.Resolve(input)
		require.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, ErrUnknownEntity)
	}
}

func TestNew_Validation(t *testing.T) {
	valid := []models.EntityDescriptor{{
		Name:   "things",
		Fields: []models.FieldDescriptor{{Name: "name", Type: models.FieldTypeText, Queryable: true}},
	}}

	t.Run("table defaults to name", func(t *testing.T) {
		c, err := New(valid, nil)
		require.NoError(t, err)
		desc, err := c.Describe("things")
		require.NoError(t, err)
		assert.Equal(t, "things", desc.Table)
	})

	t.Run("duplicate entity rejected", func(t *testing.T) {
		_, err := New(append(valid, valid[0]), nil)
		assert.Error(t, err)
	})

	t.Run("category to unknown entity rejected", func(t *testing.T) {
		_, err := New(valid, map[string]string{"stuff": "missing"})
		assert.Error(t, err)
	})

	t.Run("unnamed entity rejected", func(t *testing.T) {
		_, err := New([]models.EntityDescriptor{{}}, nil)
		assert.Error(t, err)
	})
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
entities:
  - name: tickets
    label: Support Tickets
    table: helpdesk_tickets
    fields:
      - name: subject
        type: text
        label: Subject
        queryable: true
      - name: sla_breached
        type: boolean
        label: SLA Breached
        queryable: false
categories:
  requests: tickets
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	entity, err := c.Resolve("requests")
	require.NoError(t, err)
	assert.Equal(t, "tickets", entity)

	desc, err := c.Describe("tickets")
	require.NoError(t, err)
	assert.Equal(t, "helpdesk_tickets", desc.Table)
	assert.True(t, desc.IsQueryable("subject"))
	assert.False(t, desc.IsQueryable("sla_breached"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
