package model

import "github.com/twpayne/go-geom"

// Region is a named county boundary loaded from a shapefile.
type Region struct {
	Name       string             `json:"name"`
	Attributes map[string]string  `json:"attributes,omitempty"`
	Geometry   *geom.MultiPolygon `json:"-"`
}

// AttributeRecord is one row of a service availability table, keyed by
// county or city name. A nil flag means the cell was empty or NaN.
type AttributeRecord struct {
	Key   string          `json:"key"`
	Flags map[string]*int `json:"flags"`
	Row   int             `json:"row"`
}

// Flag returns the value of the named flag, or nil when it is missing.
func (a AttributeRecord) Flag(field string) *int {
	if a.Flags == nil {
		return nil
	}
	return a.Flags[field]
}

// JoinedRecord is a Region with the flags of its matching attribute row.
// Matched is false when no attribute row carried the region's name; every
// flag is then nil.
type JoinedRecord struct {
	Region  Region          `json:"region"`
	Flags   map[string]*int `json:"flags"`
	Matched bool            `json:"matched"`
}

// Flag returns the value of the named flag, or nil when it is missing.
func (j JoinedRecord) Flag(field string) *int {
	if j.Flags == nil {
		return nil
	}
	return j.Flags[field]
}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
