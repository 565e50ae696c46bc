// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/bureau-foundation/stockroom/lib/product"
	"github.com/bureau-foundation/stockroom/lib/wire"
)

func (s *Stockroom) handleHelp(context.Context, *wire.Request) *wire.Response {
	listing := &wire.Table{Columns: []string{"command", "description"}}
	for _, name := range s.commands.Names() {
		cmd, _ := s.commands.Lookup(name)
		listing.AddRow(name, cmd.Description())
	}
	listing.AddRow("exit", "disconnect and quit")
	return wire.Listing("available commands", listing)
}

func (s *Stockroom) handleInfo(context.Context, *wire.Request) *wire.Response {
	info := s.collection.Info()
	listing := &wire.Table{Columns: []string{"field", "value"}}
	listing.AddRow("type", info.Type)
	listing.AddRow("size", strconv.Itoa(info.Size))
	listing.AddRow("loaded", formatTime(info.LoadTime))
	listing.AddRow("saved", formatTime(info.SaveTime))
	return wire.Listing("collection", listing)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.DateTime)
}

// handleShow lists products in descending natural order.
func (s *Stockroom) handleShow(context.Context, *wire.Request) *wire.Response {
	items := s.collection.Snapshot()
	slices.SortFunc(items, func(a, b *product.Product) int { return product.Compare(b, a) })

	listing := &wire.Table{Columns: product.Columns}
	for _, item := range items {
		listing.AddRow(item.Row()...)
	}
	return wire.Listing(fmt.Sprintf("%d products", len(items)), listing)
}

func (s *Stockroom) handleCountLessThanOwner(_ context.Context, request *wire.Request) *wire.Response {
	var person product.Person
	if err := request.DecodePayload(&person); err != nil {
		return badPayload(request.Command, err)
	}
	if err := person.Validate(); err != nil {
		return wire.Failf("invalid person: %v", err)
	}

	count := 0
	for _, item := range s.collection.Snapshot() {
		if item.Owner != nil && product.ComparePeople(item.Owner, &person) < 0 {
			count++
		}
	}
	return wire.OKf("%d products have an owner less than %s", count, person.Name)
}

// handlePrintAscendingOwner lists each distinct owner once, ordered by
// passport id.
func (s *Stockroom) handlePrintAscendingOwner(context.Context, *wire.Request) *wire.Response {
	owners := make(map[string]*product.Person)
	for _, item := range s.collection.Snapshot() {
		if item.Owner != nil {
			owners[item.Owner.PassportID] = item.Owner
		}
	}
	passports := make([]string, 0, len(owners))
	for passport := range owners {
		passports = append(passports, passport)
	}
	slices.Sort(passports)

	listing := &wire.Table{Columns: []string{"passport", "owner"}}
	for _, passport := range passports {
		listing.AddRow(passport, owners[passport].String())
	}
	return wire.Listing("owners by passport id", listing)
}

func (s *Stockroom) handlePrintDescendingPrice(context.Context, *wire.Request) *wire.Response {
	items := s.collection.Snapshot()
	slices.SortStableFunc(items, func(a, b *product.Product) int { return cmp.Compare(b.Price, a.Price) })

	listing := &wire.Table{Columns: []string{"price", "id"}}
	for _, item := range items {
		listing.AddRow(strconv.FormatInt(int64(item.Price), 10), strconv.FormatInt(item.ID, 10))
	}
	return wire.Listing("prices, highest first", listing)
}
