package viaf

import (
	"time"
)

const facetHistory = "history"

// History event types.
const (
	HistoryAdd    = "add"
	HistoryUpdate = "update"
	HistoryDelete = "delete"
)

// HistoryEvent is one entry of a cluster's change log.
type HistoryEvent struct {
	RecordID string `json:"record_id" yaml:"record_id"`
	Time     string `json:"time" yaml:"time"`
	Type     string `json:"type" yaml:"type"`
}

// ExtractHistory returns the change-log entries in source order. Entries
// without a valid RFC 3339 time or without a type are skipped.
func ExtractHistory(r Record) ([]HistoryEvent, []Warning) {
	events := make([]HistoryEvent, 0)
	var warnings []Warning

	for i, ht := range r.node.Find(facetHistory, "ht") {
		recid, _ := ht.Attr("recid")
		ts, _ := ht.Attr("time")
		typ, _ := ht.Attr("type")

		if typ == "" {
			warnings = append(warnings, warnf(facetHistory, "event %d (%q) has no type", i, recid))
			continue
		}
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			warnings = append(warnings, warnf(facetHistory, "event %d (%q) has bad time %q", i, recid, ts))
			continue
		}
		events = append(events, HistoryEvent{RecordID: recid, Time: ts, Type: typ})
	}
	return events, warnings
}
