// Package cmdutil provides flag helpers shared by osiris commands.
package cmdutil

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/osiris/internal/store"
	"github.com/agentstation/osiris/pkg/errors"
	"github.com/agentstation/osiris/pkg/events"
)

// EventFlags selects which events a command prints.
type EventFlags struct {
	Source string
	Type   string
	Since  time.Duration
	Limit  int
}

// AddEventFlags registers the event selection flags on cmd.
func AddEventFlags(cmd *cobra.Command, defaultLimit int) *EventFlags {
	flags := &EventFlags{}
	cmd.Flags().StringVarP(&flags.Source, "source", "s", "", "Only events from this source (e.g. usgs, cisa_kev)")
	cmd.Flags().StringVarP(&flags.Type, "type", "t", "", "Only events of this type (e.g. earthquake, cyber)")
	cmd.Flags().DurationVar(&flags.Since, "since", 0, "Only events newer than this age (e.g. 6h)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", defaultLimit, "Maximum number of events")
	return flags
}

// Filter validates the flags and converts them to a store filter.
func (f *EventFlags) Filter() (store.Filter, error) {
	filter := store.Filter{Limit: f.Limit}
	if f.Limit < 0 {
		return filter, errors.NewValidationError("limit", f.Limit, "must not be negative")
	}
	if f.Source != "" {
		src := events.Source(f.Source)
		if !src.Valid() {
			return filter, errors.NewValidationError("source", f.Source, "unknown source")
		}
		filter.Source = src
	}
	if f.Type != "" {
		typ := events.Category(f.Type)
		if !typ.Valid() {
			return filter, errors.NewValidationError("type", f.Type, "unknown event type")
		}
		filter.Type = typ
	}
	if f.Since > 0 {
		since := time.Now().Add(-f.Since).UTC()
		filter.Since = &since
	}
	return filter, nil
}

// MustGetInt returns an int flag defined by the calling package.
func MustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// MustGetString returns a string flag defined by the calling package.
func MustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// MustGetBool returns a bool flag defined by the calling package.
func MustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// MustGetStringSlice returns a string slice flag defined by the calling package.
func MustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// MustGetDuration returns a duration flag defined by the calling package.
func MustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
