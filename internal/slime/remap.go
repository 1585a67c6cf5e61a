package slime

// LegacyRemap converts a block id and data pair that was stored under an
// older world version into a pair valid for target. Hosts supply one per
// supported version.
type LegacyRemap func(id, data uint8, target WorldVersion) (uint8, uint8)

// LegacyRule is the conversion rule of a single block id.
type LegacyRule struct {
	// Convert maps old data to a data value valid in target. It reports
	// false when the old value has no counterpart.
	Convert func(data uint8, target WorldVersion) (uint8, bool)

	// Default is the block's canonical data value, used when Convert is
	// missing or fails.
	Default uint8
}

// LegacyTable is a table driven LegacyRemap.
type LegacyTable struct {
	// Valid reports whether id:data is a registered state in target.
	// A nil Valid treats every pair as registered.
	Valid func(id, data uint8, target WorldVersion) bool

	Rules map[uint8]LegacyRule
}

// Remap keeps pairs that are valid in target, converts the rest with the
// id's rule and falls back to the rule's default data. Ids without a rule
// pass through unchanged.
func (t *LegacyTable) Remap(id, data uint8, target WorldVersion) (uint8, uint8) {
	if t.Valid == nil || t.Valid(id, data, target) {
		return id, data
	}
	rule, ok := t.Rules[id]
	if !ok {
		return id, data
	}
	if rule.Convert != nil {
		if converted, ok := rule.Convert(data, target); ok {
			return id, converted
		}
	}
	return id, rule.Default
}
