// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package product

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

// MinCoordinateX is the exclusive lower bound of Coordinates.X.
const MinCoordinateX = -454

// Passport id length bounds, inclusive.
const (
	MinPassportLength = 8
	MaxPassportLength = 42
)

// Product is one item in the collection, keyed by ID.
type Product struct {
	ID           int64         `cbor:"id"`
	Name         string        `cbor:"name"`
	Coordinates  Coordinates   `cbor:"coordinates"`
	CreationDate time.Time     `cbor:"creation_date"`
	Price        int32         `cbor:"price"`
	Unit         UnitOfMeasure `cbor:"unit,omitempty"`
	Owner        *Person       `cbor:"owner,omitempty"`

	// UserID is the user who created the product. Only that user may
	// update or remove it. The server overwrites whatever the client
	// sends.
	UserID int64 `cbor:"user_id,omitempty"`
}

// Coordinates locate a product.
type Coordinates struct {
	X int32   `cbor:"x"`
	Y float64 `cbor:"y"`
}

// Person is a product's buyer.
type Person struct {
	Name        string    `cbor:"name"`
	PassportID  string    `cbor:"passport_id"`
	HairColor   Color     `cbor:"hair_color,omitempty"`
	Nationality Country   `cbor:"nationality,omitempty"`
	Location    *Location `cbor:"location,omitempty"`
}

// Location is where a person lives.
type Location struct {
	X    int64  `cbor:"x"`
	Y    int32  `cbor:"y"`
	Name string `cbor:"name"`
}

// Validate reports every field that violates the product rules. The
// creation date is not checked: the server assigns it.
func (p *Product) Validate() error {
	var errs []error
	if p.ID <= 0 {
		errs = append(errs, fmt.Errorf("id must be positive, got %d", p.ID))
	}
	if err := ValidateName("name", p.Name); err != nil {
		errs = append(errs, err)
	}
	if p.Coordinates.X <= MinCoordinateX {
		errs = append(errs, fmt.Errorf("coordinates.x must be greater than %d, got %d", MinCoordinateX, p.Coordinates.X))
	}
	if p.Price <= 0 {
		errs = append(errs, fmt.Errorf("price must be positive, got %d", p.Price))
	}
	if !validEnum(p.Unit, Units) {
		errs = append(errs, fmt.Errorf("unknown unit of measure %q", p.Unit))
	}
	if p.Owner != nil {
		if err := p.Owner.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("owner: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate reports every field that violates the person rules.
func (p *Person) Validate() error {
	var errs []error
	if err := ValidateName("name", p.Name); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePassportID(p.PassportID); err != nil {
		errs = append(errs, err)
	}
	if !validEnum(p.HairColor, Colors) {
		errs = append(errs, fmt.Errorf("unknown hair color %q", p.HairColor))
	}
	if !validEnum(p.Nationality, Countries) {
		errs = append(errs, fmt.Errorf("unknown nationality %q", p.Nationality))
	}
	if p.Location != nil && p.Location.Name == "" {
		errs = append(errs, errors.New("location.name must not be empty"))
	}
	return errors.Join(errs...)
}

// ValidateName checks a product or person name: non-empty and starting
// with a letter.
func ValidateName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsLetter(first) {
		return fmt.Errorf("%s must start with a letter, got %q", field, name)
	}
	return nil
}

// ValidatePassportID checks length bounds and that every character is
// a letter or digit.
func ValidatePassportID(id string) error {
	length := utf8.RuneCountInString(id)
	if length < MinPassportLength || length > MaxPassportLength {
		return fmt.Errorf("passport id must be %d to %d characters, got %d", MinPassportLength, MaxPassportLength, length)
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("passport id must be letters and digits only, got %q", id)
		}
	}
	return nil
}

// Compare orders products by price, then name.
func Compare(a, b *Product) int {
	return cmp.Or(cmp.Compare(a.Price, b.Price), cmp.Compare(a.Name, b.Name))
}

// ComparePeople orders people by name, then passport id.
func ComparePeople(a, b *Person) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.PassportID, b.PassportID))
}

// Clone returns a deep copy so callers can hand out products without
// exposing the collection's own values.
func (p *Product) Clone() *Product {
	clone := *p
	if p.Owner != nil {
		owner := *p.Owner
		if p.Owner.Location != nil {
			location := *p.Owner.Location
			owner.Location = &location
		}
		clone.Owner = &owner
	}
	return &clone
}

// Row renders the product as table cells in the order of [Columns].
func (p *Product) Row() []string {
	owner := ""
	if p.Owner != nil {
		owner = p.Owner.String()
	}
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		fmt.Sprintf("(%d, %g)", p.Coordinates.X, p.Coordinates.Y),
		p.CreationDate.UTC().Format(time.DateTime),
		strconv.FormatInt(int64(p.Price), 10),
		string(p.Unit),
		owner,
		strconv.FormatInt(p.UserID, 10),
	}
}

// Columns are the headers matching [Product.Row].
var Columns = []string{"id", "name", "coordinates", "created", "price", "unit", "owner", "user"}

func (p *Person) String() string {
	s := fmt.Sprintf("%s (%s)", p.Name, p.PassportID)
	if p.HairColor != "" {
		s += " hair=" + string(p.HairColor)
	}
	if p.Nationality != "" {
		s += " nationality=" + string(p.Nationality)
	}
	if p.Location != nil {
		s += fmt.Sprintf(" location=%s(%d, %d)", p.Location.Name, p.Location.X, p.Location.Y)
	}
	return s
}
