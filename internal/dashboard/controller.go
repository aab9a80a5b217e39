// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dashboard holds the dashboard state for the logged-in agent: the
// six entity lists, the selected tab and the single open editor.
//
// Every activation starts a new view context. Results of network calls made
// in an earlier context are discarded when they arrive.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/model"
	"github.com/olegiv/agentdesk/internal/quota"
	"github.com/olegiv/agentdesk/internal/session"
)

// Controller errors.
var (
	ErrNoPrincipal  = errors.New("dashboard: no agent logged in")
	ErrNotCreatable = errors.New("dashboard: records of this type cannot be created here")
	ErrStale        = errors.New("dashboard: result belongs to a previous view")
	ErrNotFound     = errors.New("dashboard: record not found")
)

// EntityClient is the backend contract used by the controller.
type EntityClient interface {
	List(ctx context.Context, t model.EntityType, agentID int64) ([]model.Record, error)
	Create(ctx context.Context, rec model.Record) error
	Update(ctx context.Context, t model.EntityType, id int64, rec model.Record) error
	Remove(ctx context.Context, t model.EntityType, id int64) error
	PatchStatus(ctx context.Context, t model.EntityType, id int64, status string) error
	Plans(ctx context.Context, agentID int64) ([]model.PlanCategory, error)
}

// Controller coordinates list loading and editor state. It is safe for
// concurrent use; the lock is never held across backend calls.
type Controller struct {
	client EntityClient
	policy *quota.Policy
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	active    bool
	principal model.Principal
	gen       uint64
	viewID    string
	tab       model.EntityType
	lists     map[model.EntityType][]model.Record
	errs      map[model.EntityType]error
	plans     []model.PlanCategory
	loadedAt  time.Time
	editor    *Editor
}

// New creates an inactive controller.
func New(client EntityClient, policy *quota.Policy, logger *slog.Logger) *Controller {
	if policy == nil {
		policy = quota.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client: client,
		policy: policy,
		logger: logger,
		now:    time.Now,
		tab:    model.TypeHeroSection,
	}
}

// OnSessionEvent activates or deactivates the controller to follow the
// session store.
func (c *Controller) OnSessionEvent(ev session.Event) {
	if ev.LoggedIn() {
		c.Activate(ev.Principal)
		return
	}
	c.Deactivate()
}

// Activate starts a new view context for p. Loaded lists and any open
// editor from a previous context are dropped.
func (c *Controller) Activate(p model.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.active = true
	c.principal = p
	c.logger.Debug("dashboard activated", "agent_id", p.ID, "view_id", c.viewID)
}

// Deactivate drops all state. In-flight results are discarded on arrival.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.logger.Debug("dashboard deactivated")
}

func (c *Controller) resetLocked() {
	c.gen++
	c.viewID = uuid.NewString()
	c.active = false
	c.principal = model.Principal{}
	c.tab = model.TypeHeroSection
	c.lists = nil
	c.errs = nil
	c.plans = nil
	c.loadedAt = time.Time{}
	c.editor = nil
}

// current returns the generation and principal of the active view.
func (c *Controller) current() (uint64, model.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0, model.Principal{}, ErrNoPrincipal
	}
	return c.gen, c.principal, nil
}

type listResult struct {
	records []model.Record
	err     error
}

// Reload fetches every list in parallel, waits for all of them and then
// replaces the loaded lists wholesale. A failed list keeps its error for
// inline display; the other lists are still replaced. ErrStale is returned
// if the view context changed while the calls were in flight.
func (c *Controller) Reload(ctx context.Context) error {
	gen, p, err := c.current()
	if err != nil {
		return err
	}

	types := model.Types()
	results := make([]listResult, len(types))
	var plans []model.PlanCategory

	var g errgroup.Group
	for i, t := range types {
		g.Go(func() error {
			records, err := c.client.List(ctx, t, p.ID)
			results[i] = listResult{records: records, err: err}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		plans, err = c.client.Plans(ctx, p.ID)
		if err != nil {
			c.logger.Warn("failed to load plan catalogue", "agent_id", p.ID, "error", err)
		}
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		c.logger.Debug("discarding stale list results", "agent_id", p.ID)
		return ErrStale
	}

	c.lists = make(map[model.EntityType][]model.Record, len(types))
	c.errs = make(map[model.EntityType]error)
	for i, t := range types {
		if results[i].err != nil {
			c.errs[t] = results[i].err
			c.logger.Warn("failed to load list", "type", t, "agent_id", p.ID, "error", results[i].err)
			continue
		}
		c.lists[t] = results[i].records
	}
	c.plans = plans
	c.loadedAt = c.now()
	return nil
}

// Loaded reports whether a Reload has completed in the current context.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && !c.loadedAt.IsZero()
}

// SelectTab makes t the visible tab.
func (c *Controller) SelectTab(t model.EntityType) error {
	if _, ok := model.Lookup(t); !ok {
		return fmt.Errorf("select tab: unknown entity type %q", t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNoPrincipal
	}
	c.tab = t
	return nil
}

// Count returns the number of loaded records of type t.
func (c *Controller) Count(t model.EntityType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lists[t])
}

// Record returns the loaded record of type t with the given id.
func (c *Controller) Record(t model.EntityType, id int64) (model.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return nil, ErrNoPrincipal
	}
	return c.findLocked(t, id)
}

// quotaLocked checks the quota for t against the loaded list. A list that
// has not loaded, or failed to, leaves the count unknown.
func (c *Controller) quotaLocked(t model.EntityType) error {
	_, failed := c.errs[t]
	known := !c.loadedAt.IsZero() && !failed
	return c.policy.CheckCount(t, len(c.lists[t]), known)
}

func (c *Controller) findLocked(t model.EntityType, id int64) (model.Record, error) {
	for _, rec := range c.lists[t] {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%s %d: %w", t, id, ErrNotFound)
}

// OpenCreate opens an empty editor for t. It fails without a network call
// for types agents cannot create and when the quota is reached.
func (c *Controller) OpenCreate(t model.EntityType) error {
	d, ok := model.Lookup(t)
	if !ok {
		return fmt.Errorf("open create: unknown entity type %q", t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNoPrincipal
	}
	if !d.Creatable {
		return ErrNotCreatable
	}
	if err := c.quotaLocked(t); err != nil {
		return err
	}
	c.tab = t
	c.editor = &Editor{Mode: ModeCreate, Type: t, Draft: NewDraft(t, c.principal, c.now())}
	return nil
}

// OpenEdit opens the editor on a loaded record.
func (c *Controller) OpenEdit(t model.EntityType, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNoPrincipal
	}
	rec, err := c.findLocked(t, id)
	if err != nil {
		return err
	}
	c.tab = t
	c.editor = &Editor{Mode: ModeEdit, Type: t, ID: id, Draft: rec}
	return nil
}

// CloseEditor hides the editor. Closing when none is open is a no-op.
func (c *Controller) CloseEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor = nil
}

// RejectDraft keeps the editor open on draft with local validation errors.
func (c *Controller) RejectDraft(mode Mode, id int64, draft model.Record, fieldErrs map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.tab = draft.EntityType()
	c.editor = &Editor{
		Mode:        mode,
		Type:        draft.EntityType(),
		ID:          id,
		Draft:       draft,
		Message:     "Please correct the highlighted fields.",
		FieldErrors: fieldErrs,
	}
}

// Create submits a new record. On failure the editor stays open with the
// error; on success it closes and every list is reloaded.
func (c *Controller) Create(ctx context.Context, rec model.Record) error {
	t := rec.EntityType()
	d, ok := model.Lookup(t)
	if !ok {
		return fmt.Errorf("create: unknown entity type %q", t)
	}

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrNoPrincipal
	}
	if !d.Creatable {
		c.mu.Unlock()
		return ErrNotCreatable
	}
	if err := c.quotaLocked(t); err != nil {
		c.failLocked(ModeCreate, 0, rec, err)
		c.mu.Unlock()
		return err
	}
	gen, p := c.gen, c.principal
	c.mu.Unlock()

	if owned, ok := rec.(model.Owned); ok {
		owned.SetAgentID(p.ID)
	}
	return c.mutate(ctx, gen, ModeCreate, 0, rec, func() error {
		return c.client.Create(ctx, rec)
	})
}

// Update submits changes to the record with the given id.
func (c *Controller) Update(ctx context.Context, id int64, rec model.Record) error {
	gen, p, err := c.current()
	if err != nil {
		return err
	}
	if owned, ok := rec.(model.Owned); ok {
		owned.SetAgentID(p.ID)
	}
	return c.mutate(ctx, gen, ModeEdit, id, rec, func() error {
		return c.client.Update(ctx, rec.EntityType(), id, rec)
	})
}

// Remove deletes the record with the given id.
func (c *Controller) Remove(ctx context.Context, t model.EntityType, id int64) error {
	gen, _, err := c.current()
	if err != nil {
		return err
	}
	return c.mutate(ctx, gen, ModeEdit, id, nil, func() error {
		return c.client.Remove(ctx, t, id)
	})
}

// PatchStatus changes the status of a contact inquiry or policy holder.
func (c *Controller) PatchStatus(ctx context.Context, t model.EntityType, id int64, status string) error {
	if d, ok := model.Lookup(t); !ok || !d.HasStatus {
		return fmt.Errorf("status %s: %w", t, api.ErrNoStatus)
	}
	gen, _, err := c.current()
	if err != nil {
		return err
	}
	return c.mutate(ctx, gen, ModeEdit, id, nil, func() error {
		return c.client.PatchStatus(ctx, t, id, status)
	})
}

// mutate runs call and settles editor state. draft is nil for row actions,
// which only annotate an editor already open on the same record.
func (c *Controller) mutate(ctx context.Context, gen uint64, mode Mode, id int64, draft model.Record, call func() error) error {
	if err := call(); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			if draft != nil {
				c.failLocked(mode, id, draft, err)
			} else if c.editor != nil && c.editor.Mode == ModeEdit && c.editor.ID == id {
				c.editor.Err = err
				c.editor.Message = api.UserMessage(err)
			}
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrStale
	}
	c.editor = nil
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

func (c *Controller) failLocked(mode Mode, id int64, draft model.Record, err error) {
	msg := api.UserMessage(err)
	if errors.Is(err, quota.ErrBlocked) {
		msg = err.Error()
	}
	c.tab = draft.EntityType()
	c.editor = &Editor{
		Mode:    mode,
		Type:    draft.EntityType(),
		ID:      id,
		Draft:   draft,
		Err:     err,
		Message: msg,
	}
}
