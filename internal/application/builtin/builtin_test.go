package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpnode/internal/application"
	"pdpnode/internal/decision/models"
	"pdpnode/internal/tosca"
)

const matchTypes = `
policy_types:
  onap.policies.match.Test:
    derived_from: tosca.policies.Root
    version: 1.0.0
    properties:
      matchable:
        type: string
        metadata:
          matchable: true
      nonmatchable:
        type: string
`

func TestDiscoverRegistersWithoutConflict(t *testing.T) {
	apps, err := Discover(nil, Deps{})
	require.NoError(t, err)
	require.Len(t, apps, len(Names))

	r := application.NewRegistry()
	for _, app := range apps {
		require.NoError(t, r.Register(app))
	}
	for action, want := range map[string]string{
		"native": Native, "configure": Monitoring, "naming": Naming,
		"match": Match, "optimize": Optimization, "guard": Guard,
	} {
		app, err := r.Find(action)
		require.NoError(t, err)
		assert.Equal(t, want, app.Name())
	}
}

func TestDiscoverRejectsUnknownName(t *testing.T) {
	_, err := Discover([]string{"naming", "nope"}, Deps{})
	assert.Error(t, err)
}

func TestMatchApplicationEndToEnd(t *testing.T) {
	ctx := context.Background()
	catalog := tosca.NewCatalog()
	require.NoError(t, catalog.Parse([]byte(matchTypes)))

	apps, err := Discover([]string{Match}, Deps{Catalog: catalog})
	require.NoError(t, err)
	r := application.NewRegistry()
	require.NoError(t, r.Register(apps[0]))

	_, err = r.Deploy(ctx, &tosca.Policy{
		Name:        "test-match",
		Version:     "1.0.0",
		Type:        "onap.policies.match.Test",
		TypeVersion: "1.0.0",
		Metadata:    map[string]any{tosca.MetadataPolicyID: "test-match", tosca.MetadataPolicyVersion: "1.0.0"},
		Properties:  map[string]any{"matchable": "foo", "nonmatchable": "value1"},
	})
	require.NoError(t, err)

	app, err := r.Find("match")
	require.NoError(t, err)

	resp, _, err := app.Evaluate(ctx, &models.DecisionRequest{
		Action:   "match",
		Resource: map[string]any{"matchable": "foo"},
	}, models.DecisionParams{})
	require.NoError(t, err)
	require.Len(t, resp.Policies, 1)
	entry := resp.Policies["test-match"].(map[string]any)
	assert.Equal(t, "value1", entry["properties"].(map[string]any)["nonmatchable"])

	resp, _, err = app.Evaluate(ctx, &models.DecisionRequest{
		Action:   "match",
		Resource: map[string]any{"matchable": "hello"},
	}, models.DecisionParams{})
	require.NoError(t, err)
	assert.Empty(t, resp.Policies)
}
