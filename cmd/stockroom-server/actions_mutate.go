// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/bureau-foundation/stockroom/lib/product"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

// decodeProduct decodes and validates a product payload.
func decodeProduct(request *wire.Request) (*product.Product, *wire.Response) {
	var item product.Product
	if err := request.DecodePayload(&item); err != nil {
		return nil, badPayload(request.Command, err)
	}
	if err := item.Validate(); err != nil {
		return nil, wire.Failf("invalid product: %v", err)
	}
	return &item, nil
}

// decodeID decodes a product id payload.
func decodeID(request *wire.Request) (int64, *wire.Response) {
	var id int64
	if err := request.DecodePayload(&id); err != nil {
		return 0, badPayload(request.Command, err)
	}
	if id <= 0 {
		return 0, wire.Failf("id must be positive, got %d", id)
	}
	return id, nil
}

func (s *Stockroom) handleInsert(ctx context.Context, request *wire.Request) *wire.Response {
	item, failed := decodeProduct(request)
	if failed != nil {
		return failed
	}
	if err := s.collection.Insert(ctx, item, request.UserID); err != nil {
		return s.failure(err, item.ID)
	}
	s.logger.Info("product inserted", "id", item.ID, "user_id", request.UserID)
	return wire.OKf("product %d added", item.ID)
}

func (s *Stockroom) handleUpdate(ctx context.Context, request *wire.Request) *wire.Response {
	item, failed := decodeProduct(request)
	if failed != nil {
		return failed
	}
	if err := s.collection.Update(ctx, item, request.UserID); err != nil {
		return s.failure(err, item.ID)
	}
	s.logger.Info("product updated", "id", item.ID, "user_id", request.UserID)
	return wire.OKf("product %d updated", item.ID)
}

func (s *Stockroom) handleRemoveKey(ctx context.Context, request *wire.Request) *wire.Response {
	id, failed := decodeID(request)
	if failed != nil {
		return failed
	}
	if err := s.collection.Remove(ctx, id, request.UserID); err != nil {
		return s.failure(err, id)
	}
	s.logger.Info("product removed", "id", id, "user_id", request.UserID)
	return wire.OKf("product %d removed", id)
}

func (s *Stockroom) handleClear(ctx context.Context, request *wire.Request) *wire.Response {
	return s.removeWhere(ctx, request, func(*product.Product) bool { return true })
}

func (s *Stockroom) handleRemoveGreater(ctx context.Context, request *wire.Request) *wire.Response {
	pivot, failed := decodeProduct(request)
	if failed != nil {
		return failed
	}
	return s.removeWhere(ctx, request, func(item *product.Product) bool {
		return product.Compare(item, pivot) > 0
	})
}

func (s *Stockroom) handleRemoveLowerKey(ctx context.Context, request *wire.Request) *wire.Response {
	id, failed := decodeID(request)
	if failed != nil {
		return failed
	}
	return s.removeWhere(ctx, request, func(item *product.Product) bool { return item.ID < id })
}

func (s *Stockroom) handleRemoveGreaterKey(ctx context.Context, request *wire.Request) *wire.Response {
	id, failed := decodeID(request)
	if failed != nil {
		return failed
	}
	return s.removeWhere(ctx, request, func(item *product.Product) bool { return item.ID > id })
}

func (s *Stockroom) removeWhere(ctx context.Context, request *wire.Request, match func(*product.Product) bool) *wire.Response {
	removed, err := s.collection.RemoveWhere(ctx, request.UserID, match)
	if err != nil {
		s.logger.Error("bulk remove failed", "command", request.Command, "removed", removed, "error", err)
		return wire.Failf("storage error after removing %d products", removed)
	}
	s.logger.Info("products removed", "command", request.Command, "removed", removed, "user_id", request.UserID)
	return wire.OKf("%d products removed", removed)
}
