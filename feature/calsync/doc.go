// Package calsync moves planner data in and out of calendars.
//
// Three paths exist:
//
//   - Syncer pushes every series master to Google Calendar as one recurring
//     event. A dissolved series is truncated with UNTIL or deleted remotely.
//     Calls go through a circuit breaker. Scheduler runs it on a cron schedule.
//   - Exporter renders an owner's items as an iCalendar file and stores it in
//     object storage under exports/.
//   - Importer reads an iCalendar file back into series and standalone items.
//
// Only rules the RRULE codec can express travel as recurrences. Everything
// else is written or read as individual dated items.
package calsync
