package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Rated entity type tags used by reviews and the aggregation service.
const (
	EntityTypePGListing   = "pg_listing"
	EntityTypeLocalVendor = "local_vendor"
)

// JSONMap is a free-form JSONB column (chat room/message metadata).
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for JSONMap", value)
	}
	return json.Unmarshal(b, m)
}

// BoolMap is a JSONB map of feature flags (listing amenities).
type BoolMap map[string]bool

func (m BoolMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *BoolMap) Scan(value interface{}) error {
	if value == nil {
		*m = BoolMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for BoolMap", value)
	}
	return json.Unmarshal(b, m)
}

// PrefKind tags the value held by a PrefValue.
type PrefKind int

const (
	PrefUnset PrefKind = iota // key present, no value supplied
	PrefBool
	PrefString
)

// PrefValue is one roommate preference value: a boolean, a string, or
// explicitly unset. A key that is absent from the map is a different
// state than a key mapped to an unset value.
type PrefValue struct {
	Kind PrefKind
	Bool bool
	Str  string
}

func BoolPref(v bool) PrefValue     { return PrefValue{Kind: PrefBool, Bool: v} }
func StringPref(v string) PrefValue { return PrefValue{Kind: PrefString, Str: v} }

// Equal reports whether two preference values agree. Unset values never
// agree with anything, including other unset values.
func (p PrefValue) Equal(o PrefValue) bool {
	if p.Kind != o.Kind || p.Kind == PrefUnset {
		return false
	}
	if p.Kind == PrefBool {
		return p.Bool == o.Bool
	}
	return p.Str == o.Str
}

func (p PrefValue) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PrefBool:
		return json.Marshal(p.Bool)
	case PrefString:
		return json.Marshal(p.Str)
	default:
		return []byte("null"), nil
	}
}

func (p *PrefValue) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*p = PrefValue{Kind: PrefUnset}
	case bool:
		*p = PrefValue{Kind: PrefBool, Bool: t}
	case string:
		*p = PrefValue{Kind: PrefString, Str: t}
	default:
		return errors.New("preference values must be boolean, string or null")
	}
	return nil
}

// PrefMap is the sparse preference mapping on a roommate profile,
// stored as JSONB.
type PrefMap map[string]PrefValue

func (m PrefMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *PrefMap) Scan(value interface{}) error {
	if value == nil {
		*m = PrefMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for PrefMap", value)
	}
	return json.Unmarshal(b, m)
}

// BudgetRange is a monthly rent range in rupees. Min must not exceed Max.
type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid reports whether the range is well formed.
func (b BudgetRange) Valid() bool {
	return b.Min >= 0 && b.Max >= 0 && b.Min <= b.Max
}

// GeoPoint is the nested location object carried by listings and
// vendors on the wire. Persisted as flat latitude/longitude columns.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PriceRange is a vendor's indicative price band.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DayHours is a single day's opening window for a vendor.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// HoursMap maps weekday name to opening hours, stored as JSONB.
type HoursMap map[string]DayHours

func (m HoursMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *HoursMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unexpected type %T for HoursMap", value)
	}
	return json.Unmarshal(b, m)
}
