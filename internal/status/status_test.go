package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/pkg/connectors"
	"github.com/agentstation/osiris/pkg/events"
)

func TestSnapshotDefaultsAndOrder(t *testing.T) {
	usgs := &connectors.Func{ConnectorName: "usgs", FeedSource: events.SourceUSGS}
	otx := &connectors.Func{ConnectorName: "otx", FeedSource: events.SourceOTX, Unconfigured: true}
	kev := &connectors.Func{ConnectorName: "cisa_kev", FeedSource: events.SourceCISAKEV}
	reg := connectors.NewRegistry(usgs, otx, kev)

	table := NewTable()
	table.RecordSuccess(kev, 7, time.Now())

	snap := table.Snapshot(reg)
	require.Len(t, snap, 3)
	assert.Equal(t, "usgs", snap[0].Name)
	assert.True(t, snap[0].Configured)
	assert.Nil(t, snap[0].LastFetch)
	assert.False(t, snap[1].Configured)
	assert.Equal(t, 7, snap[2].EventCount)
	assert.NotNil(t, snap[2].LastFetch)
}

func TestRecordOverwrites(t *testing.T) {
	c := &connectors.Func{ConnectorName: "usgs", FeedSource: events.SourceUSGS}
	table := NewTable()

	table.RecordSuccess(c, 3, time.Now())
	table.RecordFailure(c, errors.New("timeout"))

	s, ok := table.Get("usgs")
	require.True(t, ok)
	require.NotNil(t, s.Error)
	assert.Equal(t, "timeout", *s.Error)
	assert.Zero(t, s.EventCount)
	assert.Nil(t, s.LastFetch)
}

func TestSources(t *testing.T) {
	msg := "down"
	statuses := []events.FeedStatus{
		{Source: events.SourceUSGS, Configured: true, EventCount: 4},
		{Source: events.SourceUSGS, Configured: true, EventCount: 1},
		{Source: events.SourceOTX, Configured: false},
		{Source: events.SourceCISAKEV, Configured: true, Error: &msg},
		{Source: events.SourceNASAEONET, Configured: true},
	}

	active, unavailable := Sources(statuses)
	assert.Equal(t, []events.Source{events.SourceUSGS}, active)
	assert.Equal(t, []events.Source{events.SourceCISAKEV, events.SourceOTX}, unavailable)
}
