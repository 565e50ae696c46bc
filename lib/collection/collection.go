// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collection holds the server's shared, in-memory set of
// products and keeps it in step with durable storage.
//
// Handler workers call into a single Collection concurrently. Reads
// take a shared lock. Every mutation, including the compound
// check-then-act ones (insert only if the id is free, delete every
// owned product matching a predicate), holds the exclusive lock for
// its whole duration, durable store call included. The in-memory map
// changes only after the store reports success, so two racing inserts
// of one id cannot both win and a failed durable delete never leaves
// the item missing from memory.
package collection

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/stockroom/lib/clock"
	"github.com/bureau-foundation/stockroom/lib/product"
)

// Sentinel errors for mutations that were refused.
var (
	ErrExists   = errors.New("product with this id already exists")
	ErrNotFound = errors.New("product not found")
	ErrNotOwned = errors.New("product belongs to another user")
)

// Store is the durable storage behind a Collection. Calls may block;
// the Collection serializes every mutating call.
type Store interface {
	// Load returns every stored product.
	Load(ctx context.Context) ([]*product.Product, error)

	// InsertIfAbsent stores p as owned by owner. It returns false when
	// a product with p.ID already exists.
	InsertIfAbsent(ctx context.Context, p *product.Product, owner int64) (bool, error)

	// RemoveByID deletes the product if owner owns it and reports
	// whether a row was removed.
	RemoveByID(ctx context.Context, id, owner int64) (bool, error)

	// UpdateByID replaces the stored product if owner owns it and
	// reports whether a row was changed.
	UpdateByID(ctx context.Context, p *product.Product, owner int64) (bool, error)

	// CheckOwnership reports whether owner owns the product.
	CheckOwnership(ctx context.Context, id, owner int64) (bool, error)
}

// Config holds the dependencies of a Collection.
type Config struct {
	Store Store

	// Clock stamps creation dates and load/save times. Nil means the
	// system clock.
	Clock clock.Clock

	// Logger receives store failures. Nil discards.
	Logger *slog.Logger
}

// Collection is the shared product map.
type Collection struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.RWMutex
	items    map[int64]*product.Product
	loadTime time.Time
	saveTime time.Time
}

// New returns an empty Collection. Call Load to fill it from the store.
func New(config Config) *Collection {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Collection{
		store:  config.Store,
		clock:  config.Clock,
		logger: config.Logger,
		items:  make(map[int64]*product.Product),
	}
}

// Load replaces the in-memory contents with the store's.
func (c *Collection) Load(ctx context.Context) error {
	products, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}

	items := make(map[int64]*product.Product, len(products))
	for _, p := range products {
		items[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.loadTime = c.clock.Now()
	c.logger.Info("collection loaded", "size", len(items))
	return nil
}

// Insert stores a copy of p owned by owner, stamping its creation date.
// It returns ErrExists when the id is taken.
func (c *Collection) Insert(ctx context.Context, p *product.Product, owner int64) error {
	item := p.Clone()
	item.UserID = owner

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[item.ID]; exists {
		return ErrExists
	}
	item.CreationDate = c.clock.Now()

	inserted, err := c.store.InsertIfAbsent(ctx, item, owner)
	if err != nil {
		c.logger.Warn("store insert failed", "id", item.ID, "error", err)
		return fmt.Errorf("storing product %d: %w", item.ID, err)
	}
	if !inserted {
		return ErrExists
	}

	c.items[item.ID] = item
	c.saveTime = item.CreationDate
	return nil
}

// Update replaces the product with p.ID, keeping its creation date and
// owner. It returns ErrNotFound or ErrNotOwned when refused.
func (c *Collection) Update(ctx context.Context, p *product.Product, owner int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[p.ID]
	if !ok {
		return ErrNotFound
	}
	if err := c.checkOwnership(ctx, existing, owner); err != nil {
		return err
	}

	item := p.Clone()
	item.UserID = owner
	item.CreationDate = existing.CreationDate

	updated, err := c.store.UpdateByID(ctx, item, owner)
	if err != nil {
		c.logger.Warn("store update failed", "id", item.ID, "error", err)
		return fmt.Errorf("updating product %d: %w", item.ID, err)
	}
	if !updated {
		return ErrNotOwned
	}

	c.items[item.ID] = item
	c.saveTime = c.clock.Now()
	return nil
}

// Remove deletes the product with id. It returns ErrNotFound or
// ErrNotOwned when refused.
func (c *Collection) Remove(ctx context.Context, id, owner int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[id]
	if !ok {
		return ErrNotFound
	}
	if err := c.checkOwnership(ctx, existing, owner); err != nil {
		return err
	}

	removed, err := c.store.RemoveByID(ctx, id, owner)
	if err != nil {
		c.logger.Warn("store remove failed", "id", id, "error", err)
		return fmt.Errorf("removing product %d: %w", id, err)
	}
	if !removed {
		return ErrNotOwned
	}

	delete(c.items, id)
	c.saveTime = c.clock.Now()
	return nil
}

// RemoveWhere deletes every product owned by owner that match accepts.
// A product leaves memory only if its durable delete succeeds. The
// first store error stops the sweep and is returned along with the
// number removed before it.
func (c *Collection) RemoveWhere(ctx context.Context, owner int64, match func(*product.Product) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int64, 0)
	for id, item := range c.items {
		if item.UserID == owner && match(item) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	removed := 0
	for _, id := range ids {
		ok, err := c.store.RemoveByID(ctx, id, owner)
		if err != nil {
			c.logger.Warn("store remove failed", "id", id, "error", err)
			if removed > 0 {
				c.saveTime = c.clock.Now()
			}
			return removed, fmt.Errorf("removing product %d: %w", id, err)
		}
		if !ok {
			continue
		}
		delete(c.items, id)
		removed++
	}
	if removed > 0 {
		c.saveTime = c.clock.Now()
	}
	return removed, nil
}

// checkOwnership consults the in-memory owner first and confirms with
// the store, which is authoritative. Caller holds c.mu.
func (c *Collection) checkOwnership(ctx context.Context, item *product.Product, owner int64) error {
	if item.UserID != owner {
		return ErrNotOwned
	}
	owned, err := c.store.CheckOwnership(ctx, item.ID, owner)
	if err != nil {
		return fmt.Errorf("checking ownership of product %d: %w", item.ID, err)
	}
	if !owned {
		return ErrNotOwned
	}
	return nil
}

// Get returns a copy of the product with id.
func (c *Collection) Get(id int64) (*product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Snapshot returns copies of every product, ordered by id.
func (c *Collection) Snapshot() []*product.Product {
	c.mu.RLock()
	items := make([]*product.Product, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item.Clone())
	}
	c.mu.RUnlock()

	slices.SortFunc(items, func(a, b *product.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}

// Len returns the number of products.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Info summarizes the collection for the info command.
type Info struct {
	Type     string
	Size     int
	LoadTime time.Time
	SaveTime time.Time
}

// Info returns the current summary. Zero times mean the event has not
// happened since the server started.
func (c *Collection) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		Type:     "map[int64]*product.Product",
		Size:     len(c.items),
		LoadTime: c.loadTime,
		SaveTime: c.saveTime,
	}
}
