package model

import "strings"

// ResortCatalog maps resort ids to region ids.
type ResortCatalog map[string]string

// Region returns the region of a resort.
func (c ResortCatalog) Region(resortID string) (string, bool) {
	r, ok := c[strings.ToLower(resortID)]
	return r, ok
}

// Regions returns the union of explicit regions and the regions of the
// given resorts, normalized like preference sets.
func (c ResortCatalog) Regions(resorts, regions []string) []string {
	all := append([]string(nil), regions...)
	for _, id := range resorts {
		if r, ok := c.Region(id); ok {
			all = append(all, r)
		}
	}
	return normalizeSet(all)
}
