// Package menu holds the canonical daily menu model and the pieces that produce it:
// date keys for the vendor API and a tolerant normalizer for vendor payloads.
//
// # Canonical Menu
//
// A Menu maps a meal name ("Breakfast") to a course name ("Entrees") to the items
// served in that course, in the order the vendor listed them:
//
//	m := menu.Menu{}
//	m.Add("Lunch", "Entree", menu.MenuItem{Name: "Pizza", Calories: 400})
//
// Course entries are created on first use, so a Menu never holds an empty course.
// Map iteration order is not meaningful; use Sections for a deterministic view.
//
// # Date Keys
//
// The vendor API is queried with a plain date and indexes its day list with a
// datetime string:
//
//	menu.Resolve(day, 0)         // "2024-03-07"
//	menu.ResolveDateTime(day, 0) // "2024-03-07T00:00:00"
//
// # Normalization
//
// Normalizer turns a RawPayload into a Menu. Every item record is decoded on its
// own; a record with a blank name, a missing field or non-integer calories is
// skipped and reported in Result.Skipped, and the remaining items are still used:
//
//	n := menu.NewNormalizer(menu.WithDayListField("OrderDays"))
//	res, err := n.Normalize(payload, menu.ResolveDateTime(day, 0))
//	if errors.Is(err, menu.ErrNotFound) {
//		// the vendor has no menu for that day
//	}
//
// # Errors
//
//   - ErrNotFound: no day entry matches the requested date
//   - ErrNoPayload: nil payload passed to the normalizer
//   - ErrInvalidDate: operator supplied date could not be parsed
//   - ErrMalformedPayload: the matching day's item list is not an array
//   - ItemParseError: a single item was skipped (never returned, only reported)
package menu
