// Package extract reads award fields out of award page HTML by position.
//
// The pages carry no semantic markup for the data of interest. Every field sits
// a fixed number of lines away from a recognizable label, so each field is
// described by a Rule: a marker substring, a line offset from the first (or
// last) line containing it, and a capture pattern applied to the target line.
// The full battery of rules is a Layout, which can be loaded from YAML when the
// page template changes.
//
// Missing data is reported per field through award.Field sentinels. Pages that
// break the template (no quoted clone in the title, a malformed award line, an
// unterminated description) additionally yield a *StructuralParseError.
package extract
