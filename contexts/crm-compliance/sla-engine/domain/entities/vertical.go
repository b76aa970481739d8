package entities

import "strings"

// VerticalKey addresses one mapping entry: rule verticals and record
// verticals use different vocabularies, and the mapping differs per
// entity type.
type VerticalKey struct {
	Vertical   string
	EntityType EntityType
}

// VerticalMap translates a rule's vertical into the vocabulary the
// record store uses for a given entity type. Absent entries resolve to
// identity, never an error.
type VerticalMap map[VerticalKey]string

func (m VerticalMap) Resolve(vertical string, entityType EntityType) string {
	vertical = strings.TrimSpace(vertical)
	if mapped, ok := m[VerticalKey{Vertical: vertical, EntityType: entityType}]; ok {
		return mapped
	}
	return vertical
}

// DefaultVerticalMap carries the staffing-business vocabulary the rule
// editor uses against the shorter tags stamped on lead records.
// Opportunity records share the rule vocabulary and need no entries.
func DefaultVerticalMap() VerticalMap {
	return VerticalMap{
		{Vertical: "Permanent Staffing", EntityType: EntityTypeLead}:                  "Permanent",
		{Vertical: "Temporary Staffing", EntityType: EntityTypeLead}:                  "Temporary",
		{Vertical: "Learning & Development", EntityType: EntityTypeLead}:              "L&D",
		{Vertical: "HR Consulting", EntityType: EntityTypeLead}:                       "LLC",
		{Vertical: "Franchise", EntityType: EntityTypeLead}:                           "Franchise",
		{Vertical: "Alliances/Partnerships", EntityType: EntityTypeLead}:              "LLC",
		{Vertical: "POSH", EntityType: EntityTypeLead}:                                "LLC",
		{Vertical: "Labour Law Advisory & Compliance", EntityType: EntityTypeLead}:    "LLC",
	}
}
