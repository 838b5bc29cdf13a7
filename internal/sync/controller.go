// Package sync orchestrates ledger synchronization: startup, the periodic
// refresh loop, identity changes, and meal edits.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	gosync "sync"
	"sync/atomic"
	"time"

	"mealledger/internal/identity"
	"mealledger/internal/ledger"
	"mealledger/internal/models"
	"mealledger/internal/netting"
	"mealledger/internal/render"
	"mealledger/internal/transport"
)

const (
	dataPath     = "/api/get-data"
	templatePath = "/templates/debtrow.html"

	defaultInterval        = 10 * time.Second
	defaultTemplateTimeout = 30 * time.Second
)

// ErrAlreadyStarted is returned when Start is called on a controller that has
// already started its poll loop. Only one poll loop may ever exist per
// session; a second Start is an integration mistake, not a transient
// condition.
var ErrAlreadyStarted = errors.New("sync: controller already started")

// ErrTemplateTimeout is returned when the row template does not arrive within
// the configured wait.
var ErrTemplateTimeout = errors.New("sync: timed out waiting for row template")

// ErrNotSynced is returned by SetIdentity before the first successful
// refresh, when there is no roster to validate the new id against.
var ErrNotSynced = errors.New("sync: no ledger snapshot yet")

// RenderFunc receives the freshly rendered debt rows after every successful
// refresh.
type RenderFunc func(rows []string)

// Controller owns the poll timer and is the only writer to the ledger cache;
// identity changes and meal edits also go through it.
type Controller struct {
	client transport.Doer
	ids    identity.Store
	cache  *ledger.Cache
	render RenderFunc

	interval        time.Duration
	templateTimeout time.Duration

	tmpl atomic.Pointer[render.Template]

	// seq is bumped per issued refresh; applied tracks the newest sequence
	// whose response has been published. A response that completes after a
	// newer refresh was issued is discarded, so the last-issued refresh wins
	// even when requests overlap. applyMu couples the staleness check to the
	// publish itself, so a refresh that stalls between the two cannot slip a
	// stale snapshot in after a newer one.
	seq     atomic.Uint64
	applyMu gosync.Mutex
	applied uint64

	started atomic.Bool
	stopped atomic.Bool
	stop    chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the poll period (default 10s).
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithTemplateTimeout overrides how long Start waits for the row template.
func WithTemplateTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.templateTimeout = d
	}
}

// WithRenderFunc installs the presentation callback.
func WithRenderFunc(fn RenderFunc) Option {
	return func(c *Controller) {
		c.render = fn
	}
}

// New creates a Controller. The cache is where readers observe snapshots;
// pass the same instance to the presentation layer.
func New(client transport.Doer, ids identity.Store, cache *ledger.Cache, opts ...Option) *Controller {
	c := &Controller{
		client:          client,
		ids:             ids,
		cache:           cache,
		interval:        defaultInterval,
		templateTimeout: defaultTemplateTimeout,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start fetches the row template, performs one immediate refresh, and then
// polls the ledger endpoint until Stop is called or ctx is cancelled.
//
// Polling never begins before the template has arrived. Start returns
// ErrAlreadyStarted if called twice, and ErrTemplateTimeout if the template
// never shows up.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ready := make(chan error, 1)
	go func() {
		body, err := c.client.Do(ctx, http.MethodGet, templatePath, nil)
		if err != nil {
			ready <- fmt.Errorf("failed to fetch row template: %w", err)
			return
		}
		c.tmpl.Store(render.NewTemplate(string(body)))
		slog.Info("loaded row template", "bytes", len(body))
		ready <- nil
	}()

	select {
	case err := <-ready:
		if err != nil {
			return err
		}
	case <-time.After(c.templateTimeout):
		return ErrTemplateTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.Refresh(ctx); err != nil {
		// The poll loop is the retry mechanism; the first tick will try again.
		slog.Warn("initial refresh failed", "error", err)
	}

	go c.poll(ctx)
	return nil
}

// Stop tears down the poll timer. Stopping an already-stopped controller is a
// no-op.
func (c *Controller) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stop)
	}
}

func (c *Controller) poll(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				slog.Warn("refresh failed, keeping last snapshot", "error", err)
			}
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Refresh performs one full fetch-and-recompute cycle: fetch the ledger,
// resolve the identity, rebuild the debt matrix, publish the snapshot, and
// hand the rendered rows to the presentation callback.
func (c *Controller) Refresh(ctx context.Context) error {
	seq := c.seq.Add(1)

	body, err := c.client.Do(ctx, http.MethodGet, dataPath, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch ledger: %w", err)
	}

	var led models.Ledger
	if err := json.Unmarshal(body, &led); err != nil {
		return fmt.Errorf("failed to decode ledger: %w", err)
	}

	// Cheap early exit: a newer refresh has already been issued, so this
	// response is stale no matter what it contains.
	if seq < c.seq.Load() {
		slog.Debug("discarding stale refresh", "seq", seq, "latest", c.seq.Load())
		return nil
	}

	me, err := identity.Resolve(c.ids, led.Users)
	if err != nil {
		return fmt.Errorf("failed to resolve identity: %w", err)
	}

	snap := &ledger.Snapshot{
		Roster:   led.Users,
		Matrix:   netting.Compute(led.Users, led.Receipts),
		Identity: me,
	}

	// The staleness check and the publish must be atomic: Resolve above can
	// block, so a refresh that passed an earlier check could otherwise
	// publish over a newer snapshot.
	c.applyMu.Lock()
	if seq <= c.applied || seq < c.seq.Load() {
		c.applyMu.Unlock()
		slog.Debug("discarding stale refresh", "seq", seq, "latest", c.seq.Load())
		return nil
	}
	c.applied = seq
	c.cache.Replace(snap)
	if c.render != nil {
		if tmpl := c.tmpl.Load(); tmpl != nil {
			c.render(tmpl.Rows(snap))
		}
	}
	c.applyMu.Unlock()

	slog.Debug("ledger refreshed",
		"users", len(led.Users),
		"receipts", len(led.Receipts),
		"identity", me.UPN,
	)
	return nil
}

// SetIdentity switches the session to the user with the given id. The id
// must exist in the current roster; otherwise identity.ErrIdentityNotFound
// comes back and nothing changes. On success the id is persisted and an
// immediate refresh republishes the snapshot from the new perspective.
func (c *Controller) SetIdentity(ctx context.Context, id uint) error {
	snap := c.cache.Load()
	if snap == nil {
		return ErrNotSynced
	}

	found := false
	for _, u := range snap.Roster {
		if u.ID == id {
			found = true
			break
		}
	}
	if !found {
		return identity.ErrIdentityNotFound
	}

	if err := c.ids.Persist(int64(id)); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return c.Refresh(ctx)
}

// EditMeal posts a meal adjustment between two users and forces a refresh.
// The refresh runs regardless of the POST outcome: either way, the server
// state is what the session needs to reconcile with.
func (c *Controller) EditMeal(ctx context.Context, payer, payee string, meals int) error {
	path := fmt.Sprintf("/api/edit_meal/%s/%s/%d",
		url.PathEscape(payer), url.PathEscape(payee), meals)

	_, postErr := c.client.Do(ctx, http.MethodPost, path, nil)
	if postErr != nil {
		slog.Warn("edit_meal failed", "payer", payer, "payee", payee, "error", postErr)
	}

	if err := c.Refresh(ctx); err != nil {
		slog.Warn("refresh after edit_meal failed", "error", err)
	}
	return postErr
}
