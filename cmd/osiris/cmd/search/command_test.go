package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cmd/cmdtest"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/pkg/events"
)

func TestSearchJSON(t *testing.T) {
	app := cmdtest.App(cmdtest.Client(t), "json")

	out, _, err := cmdtest.Run(t, NewCommand(app), "earthquake", "near", "Sendai", "--threshold", "0.1")
	require.NoError(t, err)

	var results []retrieval.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Event.Title, "Sendai")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchSourceFilter(t *testing.T) {
	app := cmdtest.App(cmdtest.Client(t), "json")

	out, _, err := cmdtest.Run(t, NewCommand(app), "earthquake", "--source", "cisa_kev", "--threshold", "0")
	require.NoError(t, err)

	var results []retrieval.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	for _, r := range results {
		assert.Equal(t, events.SourceCISAKEV, r.Event.Source)
	}
}

func TestSearchNoFetchFindsNothing(t *testing.T) {
	app := cmdtest.App(cmdtest.Client(t), "json")

	out, _, err := cmdtest.Run(t, NewCommand(app), "earthquake", "--no-fetch", "--threshold", "0")
	require.NoError(t, err)

	var results []retrieval.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Empty(t, results)
}

func TestSearchValidation(t *testing.T) {
	app := cmdtest.App(cmdtest.Client(t), "json")

	_, _, err := cmdtest.Run(t, NewCommand(app))
	assert.Error(t, err, "query text is required")

	_, _, err = cmdtest.Run(t, NewCommand(app), "quake", "--type", "meteor")
	assert.Error(t, err)
}
