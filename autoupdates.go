package osiris

import (
	"context"

	"github.com/agentstation/osiris/pkg/constants"
	"github.com/agentstation/osiris/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoUpdater = (*client)(nil)

// AutoUpdater provides controls for the periodic cycle loop.
type AutoUpdater interface {
	// AutoUpdatesOn starts the scheduler in the background
	AutoUpdatesOn() error

	// AutoUpdatesOff stops the scheduler, waiting up to the shutdown deadline
	AutoUpdatesOff() error
}

// AutoUpdatesOn starts the scheduler in the background. Calling it while
// already running restarts it.
func (c *client) AutoUpdatesOn() error {
	if c.options.cyclePeriod <= 0 {
		return &errors.ValidationError{
			Field:   "cyclePeriod",
			Value:   c.options.cyclePeriod,
			Message: "cycle period must be positive",
		}
	}

	if err := c.AutoUpdatesOff(); err != nil {
		return err
	}

	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	c.updateCancel = cancel
	done := make(chan struct{})
	c.updateDone = done

	go func() {
		defer close(done)
		if err := c.scheduler.Run(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Scheduler exited")
		}
	}()
	return nil
}

// AutoUpdatesOff stops the scheduler.
func (c *client) AutoUpdatesOff() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownDeadline)
	defer cancel()
	return c.stopUpdates(ctx)
}

func (c *client) stopUpdates(ctx context.Context) error {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()

	if c.updateCancel == nil {
		return nil
	}
	err := c.scheduler.Stop(ctx)
	c.updateCancel()
	<-c.updateDone
	c.updateCancel, c.updateDone = nil, nil
	return err
}
