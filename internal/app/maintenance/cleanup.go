package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/services"
	"github.com/civigo/civigo/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultTokenSpec          = "@every 5m"
	defaultAuditSpec          = "@daily"
)

// Cleaner coordinates background maintenance: sweeping expired login tokens
// and enforcing audit retention. Token expiry correctness never depends on the
// sweep; redemption checks expiry itself. The sweep is hygiene.
type Cleaner struct {
	broker    *iauth.TokenBroker
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	tokenSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithTokenSchedule overrides the cron specification for the token sweep.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding job being skipped.
func NewCleaner(broker *iauth.TokenBroker, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		broker:        broker,
		audit:         audit,
		now:           time.Now,
		retention:     defaultAuditRetentionDays,
		tokenSchedule: defaultTokenSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.broker != nil || cleaner.audit != nil

	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it if at
// least one is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.broker != nil {
		if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
			removed, err := c.broker.SweepExpired(context.Background())
			if err != nil {
				c.log.Warn("login token sweep failed", zap.Error(err))
				return
			}
			if removed > 0 {
				c.log.Info("swept expired login tokens", zap.Int64("removed", removed))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			cutoff := c.now().AddDate(0, 0, -c.retention)
			if _, err := c.audit.PurgeOlderThan(context.Background(), cutoff); err != nil {
				c.log.Warn("audit retention cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in
// tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.broker != nil {
		if _, err := c.broker.SweepExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.audit != nil && c.retention > 0 {
		cutoff := c.now().AddDate(0, 0, -c.retention)
		if _, err := c.audit.PurgeOlderThan(ctx, cutoff); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
