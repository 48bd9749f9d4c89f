package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cmd/application"
	"github.com/agentstation/osiris/internal/cmd/cmdtest"
)

func TestVersionText(t *testing.T) {
	app := &application.Mock{VersionFunc: func() string { return "1.2.3" }}

	out, _, err := cmdtest.Run(t, NewCommand(app))
	require.NoError(t, err)
	assert.Contains(t, out, "osiris version 1.2.3")
	assert.Contains(t, out, "commit: unknown")
	assert.Contains(t, out, "go version: go")
}

func TestVersionJSON(t *testing.T) {
	app := &application.Mock{
		VersionFunc:      func() string { return "1.2.3" },
		CommitFunc:       func() string { return "deadbeef" },
		OutputFormatFunc: func() string { return "json" },
	}

	out, _, err := cmdtest.Run(t, NewCommand(app))
	require.NoError(t, err)

	var info Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "deadbeef", info.Commit)
	assert.NotEmpty(t, info.Platform)
}
