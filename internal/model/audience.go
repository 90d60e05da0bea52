// internal/model/audience.go
package model

// Audience describes where a campaign's recipients come from. Each field is
// an optional source; set fields are merged with union semantics by the
// audience resolver.
//
//   - Manual: free-text address list, split on newlines/commas.
//   - WaitlistStatus: waitlist segment filtered by sub-status ("all" = every entry).
//   - ListRef: subscriber list; "all" targets every subscribed member,
//     any other value matches the subscriber's list_ref.
//   - ApptSegment: appointment-request audience tag.
type Audience struct {
	Manual         string
	WaitlistStatus string
	ListRef        string
	ApptSegment    string
}

// IsEmpty reports whether no source is set at all.
func (a Audience) IsEmpty() bool {
	return a.Manual == "" && a.WaitlistStatus == "" && a.ListRef == "" && a.ApptSegment == ""
}
