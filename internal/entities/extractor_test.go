package entities

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/pkg/events"
)

func extract(t *testing.T, text string) map[string]string {
	t.Helper()
	got, err := NewRuleExtractor().Extract(context.Background(), text)
	require.NoError(t, err)
	out := make(map[string]string, len(got))
	for _, e := range got {
		out[e.Name] = e.Type
	}
	return out
}

func TestExtractLabels(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "person org gpe",
			text: "President Joe Biden met NATO leaders in Brussels",
			want: map[string]string{"Joe Biden": LabelPerson, "NATO": LabelOrg, "Brussels": LabelGPE},
		},
		{
			name: "usgs title",
			text: "M 5.2 - 15 km SW of Tokyo, Japan",
			want: map[string]string{"Tokyo": LabelGPE, "Japan": LabelGPE},
		},
		{
			name: "facility and norp",
			text: "Russian drones struck the Zaporizhzhia Power Plant overnight",
			want: map[string]string{"Russian": LabelNORP, "Zaporizhzhia Power Plant": LabelFacility},
		},
		{
			name: "org by prefix and suffix",
			text: "The Ministry of Defence and Acme Software Inc confirmed the breach",
			want: map[string]string{"Ministry of Defence": LabelOrg, "Acme Software Inc": LabelOrg},
		},
		{
			name: "event and location",
			text: "Leaders gathered for the Jakarta Climate Summit near the South China Sea",
			want: map[string]string{"Jakarta Climate Summit": LabelEvent, "South China Sea": LabelLocation},
		},
		{
			name: "abbreviated title",
			text: "Dr. Jane Smith reported from Nairobi.",
			want: map[string]string{"Jane Smith": LabelPerson, "Nairobi": LabelGPE},
		},
		{
			name: "nested lexicon match",
			text: "Flooding across Northern Bangladesh and Eastern India",
			want: map[string]string{"Bangladesh": LabelGPE, "India": LabelGPE},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extract(t, tt.text))
		})
	}
}

func TestExtractDeduplicates(t *testing.T) {
	got, err := NewRuleExtractor().Extract(context.Background(), "Japan. Japan, and Japan again")
	require.NoError(t, err)
	assert.Equal(t, []events.Entity{{Name: "Japan", Type: LabelGPE}}, got)
}

func TestExtractIgnoresSingleCharacters(t *testing.T) {
	assert.Empty(t, extract(t, "M X Y"))
}

func TestExtractCapsInput(t *testing.T) {
	text := strings.Repeat("a", 10000) + " Japan"
	assert.Empty(t, extract(t, text))
}

func TestExtractHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRuleExtractor().Extract(ctx, "Japan")
	assert.ErrorIs(t, err, context.Canceled)
}
