// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bureau-foundation/stockroom/lib/command"
	"github.com/bureau-foundation/stockroom/lib/product"
)

// fieldReader prompts for entity fields one line at a time. On an
// interactive console an invalid value is reported and asked for
// again; anywhere else it fails the command.
type fieldReader struct {
	input  command.Input
	report func(error)
}

func (r fieldReader) field(prompt string, parse func(string) error) error {
	for {
		line, err := r.input.ReadLine(prompt)
		if err != nil {
			return err
		}
		err = parse(strings.TrimSpace(line))
		if err == nil {
			return nil
		}
		if !r.input.Interactive() {
			return err
		}
		r.report(err)
	}
}

// confirm asks a yes/no question.
func (r fieldReader) confirm(prompt string) (bool, error) {
	var answer bool
	err := r.field(prompt+" (yes/no): ", func(s string) error {
		switch strings.ToLower(s) {
		case "yes", "y":
			answer = true
		case "no", "n":
			answer = false
		default:
			return fmt.Errorf("answer yes or no, got %q", s)
		}
		return nil
	})
	return answer, err
}

// readProduct prompts for every product field except the id, which
// the command line supplies.
func (r fieldReader) readProduct(id int64) (*product.Product, error) {
	p := &product.Product{ID: id}

	steps := []struct {
		prompt string
		parse  func(string) error
	}{
		{"product name: ", func(s string) error {
			p.Name = s
			return product.ValidateName("name", s)
		}},
		{fmt.Sprintf("coordinate x (integer > %d): ", product.MinCoordinateX), func(s string) error {
			x, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return fmt.Errorf("coordinate x must be a 32-bit integer, got %q", s)
			}
			if x <= product.MinCoordinateX {
				return fmt.Errorf("coordinate x must be greater than %d", product.MinCoordinateX)
			}
			p.Coordinates.X = int32(x)
			return nil
		}},
		{"coordinate y (number): ", func(s string) error {
			y, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
				return fmt.Errorf("coordinate y must be a finite number, got %q", s)
			}
			p.Coordinates.Y = y
			return nil
		}},
		{"price (positive integer): ", func(s string) error {
			price, err := strconv.ParseInt(s, 10, 32)
			if err != nil || price <= 0 {
				return fmt.Errorf("price must be a positive 32-bit integer, got %q", s)
			}
			p.Price = int32(price)
			return nil
		}},
		{"unit of measure (" + product.Names(product.Units) + ", empty for none): ", func(s string) error {
			unit, err := product.ParseUnit(s)
			p.Unit = unit
			return err
		}},
	}
	for _, step := range steps {
		if err := r.field(step.prompt, step.parse); err != nil {
			return nil, err
		}
	}

	hasOwner, err := r.confirm("does the product have an owner?")
	if err != nil {
		return nil, err
	}
	if hasOwner {
		if p.Owner, err = r.readPerson(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// readPerson prompts for every person field.
func (r fieldReader) readPerson() (*product.Person, error) {
	person := &product.Person{}

	steps := []struct {
		prompt string
		parse  func(string) error
	}{
		{"person name: ", func(s string) error {
			person.Name = s
			return product.ValidateName("person name", s)
		}},
		{fmt.Sprintf("passport id (%d to %d letters and digits): ", product.MinPassportLength, product.MaxPassportLength), func(s string) error {
			person.PassportID = s
			return product.ValidatePassportID(s)
		}},
		{"hair color (" + product.Names(product.Colors) + ", empty for none): ", func(s string) error {
			color, err := product.ParseColor(s)
			person.HairColor = color
			return err
		}},
		{"nationality (" + product.Names(product.Countries) + ", empty for none): ", func(s string) error {
			country, err := product.ParseCountry(s)
			person.Nationality = country
			return err
		}},
	}
	for _, step := range steps {
		if err := r.field(step.prompt, step.parse); err != nil {
			return nil, err
		}
	}

	hasLocation, err := r.confirm("does the person have a location?")
	if err != nil {
		return nil, err
	}
	if hasLocation {
		if person.Location, err = r.readLocation(); err != nil {
			return nil, err
		}
	}
	return person, nil
}

func (r fieldReader) readLocation() (*product.Location, error) {
	location := &product.Location{}
	if err := r.field("location x (integer): ", func(s string) error {
		x, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("location x must be an integer, got %q", s)
		}
		location.X = x
		return nil
	}); err != nil {
		return nil, err
	}
	if err := r.field("location y (32-bit integer): ", func(s string) error {
		y, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("location y must be a 32-bit integer, got %q", s)
		}
		location.Y = int32(y)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := r.field("location name: ", func(s string) error {
		if s == "" {
			return errors.New("location name must not be empty")
		}
		location.Name = s
		return nil
	}); err != nil {
		return nil, err
	}
	return location, nil
}
