package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/types"
)

func TestSchemaConcatenatesColumnsInResolvedOrder(t *testing.T) {
	identity := newFakeModule("identity", nil, "genus", "family")
	native := newFakeModule("native-status", []string{"identity"}, "is-native")

	ordered, err := Resolve([]Module{native, identity})
	require.NoError(t, err)

	schema := BuildSchema(ordered)
	assert.Equal(t, []string{"genus", "family", "is-native"}, schema.ColumnIDs())
	assert.Equal(t, []string{"Header genus", "Header family", "Header is-native"}, schema.Headers())
	assert.Equal(t, 3, schema.Len())
}

func TestSchemaIndependentOfRunOutcome(t *testing.T) {
	identity := newFakeModule("identity", nil, "family")
	identity.run = failRun("always fails")
	native := newFakeModule("native-status", []string{"identity"}, "is-native")

	ordered, err := Resolve([]Module{identity, native})
	require.NoError(t, err)
	schema := BuildSchema(ordered)

	// Run the pipeline; the schema computed before and after must agree.
	NewExecutor().Run(context.Background(), quercusAlba(), ordered)

	again := BuildSchema(ordered)
	assert.Equal(t, schema.ColumnIDs(), again.ColumnIDs())
}

func TestSchemaDocumentationRows(t *testing.T) {
	mod := newFakeModule("identity", nil, "family")
	schema := BuildSchema([]Module{mod})

	docs := schema.Documentation()
	require.Len(t, docs, 1)
	assert.Equal(t, "family", docs[0].ColumnID)
	assert.Equal(t, "Module identity", docs[0].Module)
	assert.Equal(t, "test source", docs[0].SourceLabel)
	assert.Equal(t, "test algorithm", docs[0].Algorithm)
}

func TestSchemaRowRendersAbsentColumnsEmpty(t *testing.T) {
	identity := newFakeModule("identity", nil, "family")
	native := newFakeModule("native-status", nil, "is-native", "native-regions")
	schema := BuildSchema([]Module{identity, native})

	row := schema.Row(ColumnValues{
		"is-native":      true,
		"native-regions": []string{"Northeast", "Southeast"},
	})
	assert.Equal(t, []string{"", "true", "Northeast; Southeast"}, row)
}

func TestSchemaRowFormatsScalars(t *testing.T) {
	mod := newFakeModule("m", nil, "a", "b", "c")
	schema := BuildSchema([]Module{mod})

	row := schema.Row(ColumnValues{"a": "text", "b": 3, "c": false})
	assert.Equal(t, []string{"text", "3", "false"}, row)
}

func TestSchemaRowIgnoresNilValues(t *testing.T) {
	mod := newFakeModule("m", nil, "a")
	schema := BuildSchema([]Module{mod})
	assert.Equal(t, []string{""}, schema.Row(ColumnValues{"a": nil}))
}

// Ensure the fake module satisfies the contract used elsewhere.
var _ Module = (*fakeModule)(nil)

func TestFakeModuleDefaultRun(t *testing.T) {
	mod := newFakeModule("m", nil, "x")
	values, err := mod.Run(context.Background(), types.NewEntityKey("Acer", "rubrum"), nil)
	require.NoError(t, err)
	assert.Equal(t, ColumnValues{"x": "value-x"}, values)
}
