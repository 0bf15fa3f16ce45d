// Package navigation keeps the page's active section in sync with what the visitor is looking at.
//
// A Controller owns one viewport observer for the lifetime of a page. Regions are registered
// once per section at mount; intersection batches from the notifier move the active section,
// and NavigateTo moves it optimistically before the scroll finishes. Close must be called at
// page teardown to release every observation.
package navigation
