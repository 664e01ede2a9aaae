// Package recurrence expands recurrence rules into concrete calendar dates.
//
// A Rule pairs a Frequency with an interval and an end condition. The set of
// frequencies is closed: Daily, Weekly, Monthly and Yearly are the only types
// that satisfy the Frequency interface, and code that needs to branch on the
// frequency implements Visitor so that a new frequency fails to compile until
// every visitor handles it.
//
// # Dates
//
// All dates handled by this package are calendar dates represented as
// time.Time values at UTC midnight. Use Date, DateOf and ParseDate to build
// them. Wall-clock times and time zones belong to the callers.
//
// # Generation
//
// Generator.Generate is pure and deterministic. It returns the occurrence
// dates of a rule starting at an anchor, strictly ascending and never earlier
// than the anchor. A counted rule yields up to its count, even past the
// generator's MaxOccurrences; any other rule is truncated at that cap. No
// date falls after LastYear.
//
//	gen := recurrence.NewGenerator(52)
//	dates, err := gen.Generate(recurrence.Rule{
//	    Freq:     recurrence.Weekly{ByDay: []recurrence.Weekday{recurrence.Monday, recurrence.Friday}},
//	    Interval: 1,
//	    End:      recurrence.Count(4),
//	}, recurrence.Date(2025, time.January, 1))
//
// Monthly rules clamp the day to the length of the month, so a rule for the
// 31st yields Feb 28 (or 29), Apr 30 and so on. Yearly rules anchored on
// Feb 29 yield Feb 28 in non-leap years.
package recurrence
