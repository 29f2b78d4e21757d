// Package logtail reads the end of statekit's log file for the activity pane.
//
// The application writes JSON records through slog to a file because the
// terminal belongs to the UI. The browser periodically calls ReadEntries and
// renders each Entry with Format:
//
//	12:04:31 INFO  retrying load attempt=2 store=items task_id=load_page_1
//
// Read keeps only the last maxLines lines in a ring buffer while scanning, so
// memory stays bounded regardless of file size. Lines up to 1MB are
// supported. Lines that are not JSON are shown verbatim.
package logtail
