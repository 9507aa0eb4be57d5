package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/records/internal/directory"
	"github.com/Skotchmaster/records/internal/events"
	"github.com/Skotchmaster/records/internal/hash"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/metrics"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/repo"
	"github.com/Skotchmaster/records/internal/tokens"
)

const sideEffectTimeout = 5 * time.Second

// Deps is shared by the identity services. Directory may be nil.
type Deps struct {
	Repo      *repo.GormRepo
	Hasher    hash.Hasher
	Revoker   tokens.Revoker
	Events    events.Publisher
	Directory directory.Directory
	Now       func() time.Time
}

func NewDeps(r *repo.GormRepo, h hash.Hasher) *Deps {
	return &Deps{
		Repo:    r,
		Hasher:  h,
		Revoker: tokens.NoRevocation{},
		Events:  events.Nop{},
		Now:     time.Now,
	}
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// afterCommit runs a side effect of an already committed change. Failures
// are logged and counted; they never undo the change.
func (d *Deps) afterCommit(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.FromContext(ctx).Warn("side_effect_failed", "kind", kind, "error", err)
		metrics.SideEffectFailures.WithLabelValues(kind).Inc()
	}
}

func (d *Deps) publish(ctx context.Context, t events.Type, u *models.User) {
	if d.Events == nil {
		return
	}
	e := events.Event{Type: t, UserID: u.ID, Role: u.Role, At: d.now()}
	d.afterCommit(ctx, "event", func(ctx context.Context) error {
		return d.Events.Publish(ctx, e)
	})
}

func (d *Deps) revokeSubject(ctx context.Context, userID string, before time.Time) {
	if d.Revoker == nil {
		return
	}
	d.afterCommit(ctx, "revocation", func(ctx context.Context) error {
		return d.Revoker.RevokeSubject(ctx, userID, before)
	})
}

func (d *Deps) indexEntry(ctx context.Context, e directory.Entry) {
	if d.Directory == nil {
		return
	}
	d.afterCommit(ctx, "directory", func(ctx context.Context) error {
		return d.Directory.Index(ctx, e)
	})
}

func (d *Deps) removeEntry(ctx context.Context, userID string) {
	if d.Directory == nil {
		return
	}
	d.afterCommit(ctx, "directory", func(ctx context.Context) error {
		return d.Directory.Remove(ctx, userID)
	})
}
