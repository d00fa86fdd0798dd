// Package watch provides adaptive debouncing for file-change event
// streams. Editors and sync tools emit bursts of events for the same
// logical change; the debouncer coalesces a burst into one flush, and
// shortens its quiet period as the backlog grows so large bursts do not
// sit unprocessed behind a long timer.
package watch
