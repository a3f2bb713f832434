// Package switcher replaces the live configuration with a profile's content
// as a single all-or-nothing attempt.
package switcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/profile"
	"github.com/aleister1102/cfgswitch/internal/validation"
	"github.com/rs/zerolog"
)

// ProfileStore is the part of the profile store a switch needs.
type ProfileStore interface {
	ResolveForSwitch(mode profile.AccessMode, id string) (profile.Profile, error)
	InstallLive(mode profile.AccessMode, id string, content []byte) error
}

// Journal records finished attempts.
type Journal interface {
	RecordSwitch(ctx context.Context, attempt *Attempt) error
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	Store ProfileStore
	// Validator checks profile content before it is written. Nil means
	// syntax only.
	Validator *validation.JSONValidator
	Journal   Journal
	Logger    zerolog.Logger
	Clock     func() time.Time
}

// Coordinator runs switch attempts one at a time.
type Coordinator struct {
	mu        sync.Mutex
	store     ProfileStore
	validator *validation.JSONValidator
	journal   Journal
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Store == nil {
		return nil, common.NewValidationError("store", nil, "profile store is required")
	}
	if opts.Validator == nil {
		opts.Validator = validation.NewJSONValidator()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Coordinator{
		store:     opts.Store,
		validator: opts.Validator,
		journal:   opts.Journal,
		logger:    opts.Logger.With().Str("component", "SwitchCoordinator").Logger(),
		now:       opts.Clock,
	}, nil
}

// Switch makes profile id the live configuration. The returned Attempt is
// never nil; on error it ends in RolledBack and the live file is unchanged.
func (c *Coordinator) Switch(ctx context.Context, id string) (*Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.now()
	attempt := &Attempt{ProfileID: id, StartedAt: start}
	attempt.enter(Requested, start)

	err := c.run(ctx, attempt)
	if err != nil {
		attempt.Err = err
		attempt.enter(RolledBack, c.now())
		c.logger.Warn().Err(err).Str("profile", id).Msg("Switch rolled back")
	} else {
		attempt.enter(Committed, c.now())
		c.logger.Info().Str("profile", id).Dur("duration", attempt.Duration()).Msg("Switch committed")
	}

	c.record(ctx, attempt)
	return attempt, err
}

func (c *Coordinator) run(ctx context.Context, attempt *Attempt) error {
	id := attempt.ProfileID

	p, err := c.store.ResolveForSwitch(profile.Consistent, id)
	if err != nil {
		return err
	}

	attempt.enter(Validating, c.now())
	result := c.validator.Validate([]byte(p.Content))
	if !result.IsValid {
		return common.NewProfileError(id, common.ErrInvalidProfileContent, errors.New(result.Summary()))
	}

	if err := ctx.Err(); err != nil {
		return common.NewProfileError(id, common.ErrSwitchFailed, err)
	}

	attempt.enter(Writing, c.now())
	if err := c.store.InstallLive(profile.Consistent, id, []byte(p.Content)); err != nil {
		if errors.Is(err, common.ErrSwitchFailed) {
			return err
		}
		return common.NewProfileError(id, common.ErrSwitchFailed, err)
	}
	return nil
}

func (c *Coordinator) record(ctx context.Context, attempt *Attempt) {
	if c.journal == nil {
		return
	}
	// the journal write must not be lost to a cancelled switch context
	if err := c.journal.RecordSwitch(context.WithoutCancel(ctx), attempt); err != nil {
		c.logger.Error().Err(err).Str("profile", attempt.ProfileID).Msg("Failed to record switch")
	}
}
