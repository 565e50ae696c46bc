// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package product

import (
	"fmt"
	"slices"
	"strings"
)

// UnitOfMeasure is the unit a product's quantity is sold in.
type UnitOfMeasure string

const (
	Meters      UnitOfMeasure = "METERS"
	Centimeters UnitOfMeasure = "CENTIMETERS"
	Liters      UnitOfMeasure = "LITERS"
)

// Units lists every UnitOfMeasure in declaration order.
var Units = []UnitOfMeasure{Meters, Centimeters, Liters}

// Color is a person's hair color.
type Color string

const (
	Yellow Color = "YELLOW"
	Orange Color = "ORANGE"
	Brown  Color = "BROWN"
)

// Colors lists every Color in declaration order.
var Colors = []Color{Yellow, Orange, Brown}

// Country is a person's nationality.
type Country string

const (
	UnitedKingdom Country = "UNITED_KINGDOM"
	Germany       Country = "GERMANY"
	France        Country = "FRANCE"
	Italy         Country = "ITALY"
)

// Countries lists every Country in declaration order.
var Countries = []Country{UnitedKingdom, Germany, France, Italy}

// ParseUnit parses s case-insensitively. An empty string is the
// absent unit and parses without error.
func ParseUnit(s string) (UnitOfMeasure, error) {
	return parseEnum(s, Units, "unit of measure")
}

// ParseColor parses s case-insensitively. An empty string is the
// absent color.
func ParseColor(s string) (Color, error) {
	return parseEnum(s, Colors, "hair color")
}

// ParseCountry parses s case-insensitively. An empty string is the
// absent nationality.
func ParseCountry(s string) (Country, error) {
	return parseEnum(s, Countries, "nationality")
}

// Names joins the values of an enum list for prompts.
func Names[E ~string](values []E) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = string(value)
	}
	return strings.Join(parts, ", ")
}

func parseEnum[E ~string](s string, values []E, what string) (E, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if slices.Contains(values, E(s)) {
		return E(s), nil
	}
	return "", fmt.Errorf("unknown %s %q (want one of %s)", what, s, Names(values))
}

func validEnum[E ~string](value E, values []E) bool {
	return value == "" || slices.Contains(values, value)
}
