// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/stockroom/lib/codec"
	"github.com/bureau-foundation/stockroom/lib/product"
	"github.com/bureau-foundation/stockroom/lib/sqlitepool"
)

// Products persists the collection. The owner Person is stored as a
// CBOR blob: it is only ever read back whole.
type Products struct {
	pool *sqlitepool.Pool
}

const productColumns = "id, name, x, y, creation_date, price, unit, owner, user_id"

// Load returns every product ordered by id.
func (s *Products) Load(ctx context.Context) ([]*product.Product, error) {
	var products []*product.Product
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT "+productColumns+" FROM products ORDER BY id", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p, err := scanProduct(stmt)
				if err != nil {
					return err
				}
				products = append(products, p)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	return products, nil
}

// InsertIfAbsent stores p as owned by owner unless the id is taken.
func (s *Products) InsertIfAbsent(ctx context.Context, p *product.Product, owner int64) (bool, error) {
	ownerBlob, err := encodeOwner(p.Owner)
	if err != nil {
		return false, err
	}

	var inserted bool
	err = s.pool.Tx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"INSERT INTO products ("+productColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
			&sqlitex.ExecOptions{Args: []any{
				p.ID, p.Name, int64(p.Coordinates.X), p.Coordinates.Y,
				p.CreationDate.UTC().Format(timeLayout), int64(p.Price), string(p.Unit),
				ownerBlob, owner,
			}})
		inserted = conn.Changes() > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("inserting product %d: %w", p.ID, err)
	}
	return inserted, nil
}

// UpdateByID replaces the fields of the product with p.ID if owner
// owns it. The creation date and owner id never change.
func (s *Products) UpdateByID(ctx context.Context, p *product.Product, owner int64) (bool, error) {
	ownerBlob, err := encodeOwner(p.Owner)
	if err != nil {
		return false, err
	}

	var updated bool
	err = s.pool.Tx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"UPDATE products SET name = ?, x = ?, y = ?, price = ?, unit = ?, owner = ? WHERE id = ? AND user_id = ?",
			&sqlitex.ExecOptions{Args: []any{
				p.Name, int64(p.Coordinates.X), p.Coordinates.Y, int64(p.Price), string(p.Unit),
				ownerBlob, p.ID, owner,
			}})
		updated = conn.Changes() > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	return updated, nil
}

// RemoveByID deletes the product if owner owns it.
func (s *Products) RemoveByID(ctx context.Context, id, owner int64) (bool, error) {
	var removed bool
	err := s.pool.Tx(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM products WHERE id = ? AND user_id = ?", &sqlitex.ExecOptions{
			Args: []any{id, owner},
		})
		removed = conn.Changes() > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("removing product %d: %w", id, err)
	}
	return removed, nil
}

// CheckOwnership reports whether owner owns the product with id.
func (s *Products) CheckOwnership(ctx context.Context, id, owner int64) (bool, error) {
	var owned bool
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT 1 FROM products WHERE id = ? AND user_id = ?", &sqlitex.ExecOptions{
			Args: []any{id, owner},
			ResultFunc: func(*sqlite.Stmt) error {
				owned = true
				return nil
			},
		})
	})
	if err != nil {
		return false, fmt.Errorf("checking ownership of product %d: %w", id, err)
	}
	return owned, nil
}

// encodeOwner returns the owner blob argument, or an untyped nil so
// the column is bound as NULL.
func encodeOwner(owner *product.Person) (any, error) {
	if owner == nil {
		return nil, nil
	}
	blob, err := codec.Marshal(owner)
	if err != nil {
		return nil, fmt.Errorf("encoding owner: %w", err)
	}
	return blob, nil
}

func scanProduct(stmt *sqlite.Stmt) (*product.Product, error) {
	created, err := parseTime("creation_date", stmt.ColumnText(4))
	if err != nil {
		return nil, err
	}
	p := &product.Product{
		ID:           stmt.ColumnInt64(0),
		Name:         stmt.ColumnText(1),
		Coordinates:  product.Coordinates{X: int32(stmt.ColumnInt64(2)), Y: stmt.ColumnFloat(3)},
		CreationDate: created,
		Price:        int32(stmt.ColumnInt64(5)),
		Unit:         product.UnitOfMeasure(stmt.ColumnText(6)),
		UserID:       stmt.ColumnInt64(8),
	}
	if length := stmt.ColumnLen(7); length > 0 {
		blob := make([]byte, length)
		stmt.ColumnBytes(7, blob)
		var owner product.Person
		if err := codec.Unmarshal(blob, &owner); err != nil {
			return nil, fmt.Errorf("decoding owner of product %d: %w", p.ID, err)
		}
		p.Owner = &owner
	}
	return p, nil
}
