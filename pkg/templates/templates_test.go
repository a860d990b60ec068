package templates

import (
	"encoding/json"
	"testing"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	t.Parallel()

	all := All()
	require.Len(t, all, 3)

	ids := make([]string, 0, len(all))
	for _, tpl := range all {
		ids = append(ids, tpl.ID)
	}

	assert.Equal(t, []string{"simple-http-workflow", "function-chain-workflow", "pubsub-processing-workflow"}, ids)
}

func TestTemplatesAreValid(t *testing.T) {
	t.Parallel()

	for _, tpl := range All() {
		t.Run(tpl.ID, func(t *testing.T) {
			t.Parallel()

			assert.Empty(t, validation.Validate(tpl.Template))
			assert.Equal(t, tpl.ID, tpl.Template.Metadata.Name)
			assert.Equal(t, models.DefaultRegion, tpl.Template.Metadata.Region)
		})
	}
}

func TestTemplatesRoundTripThroughJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FunctionChain())
	require.NoError(t, err)

	var decoded models.Workflow
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Nodes, 4)

	cfg, ok := decoded.Nodes[1].Config.(*models.CloudFunctionConfig)
	require.True(t, ok)
	assert.Equal(t, "process-data", cfg.FunctionName)
	assert.Equal(t, []string{"start-1"}, decoded.Nodes[1].Inputs)
	assert.Equal(t, []string{"func-2"}, decoded.Nodes[1].Outputs)
	assert.Empty(t, validation.Validate(&decoded))
}

func TestChainAssignsFreshIDs(t *testing.T) {
	t.Parallel()

	first := SimpleHTTP()
	second := SimpleHTTP()

	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, first.Connections, 2)
	assert.Equal(t, "start-1", first.Connections[0].SourceNodeID)
	assert.Equal(t, "http-1", first.Connections[0].TargetNodeID)
	assert.InDelta(t, 300, first.Nodes[1].Position.X, 0.001)
}
