// Package rating accumulates the reviewer's per-ROI scores and comments
// until they are submitted as one batch. Nothing is auto-saved: only an
// explicit submit or an explicit reset acts on the whole set.
package rating

import (
	"fmt"

	"rtcompare/internal/session"
)

// StructureSet identifies which of the two compared annotations a
// rating applies to.
type StructureSet int

const (
	SetA StructureSet = iota
	SetB
)

const (
	// MinRating and MaxRating bound the per-set structure quality score.
	MinRating = 1
	MaxRating = 10
)

// Record is the accumulated review state for one ROI. A zero rating
// means unrated; the include flag marks the ROI for submission and is
// auto-set whenever a rating or comment is entered.
type Record struct {
	RatingA int
	RatingB int
	Comment string
	Include bool
}

func (r Record) empty() bool {
	return r.RatingA == 0 && r.RatingB == 0 && r.Comment == ""
}

// Entry is one submission row: the ROI's server-side id and label plus
// whichever fields the reviewer filled in.
type Entry struct {
	ROIID    string `json:"roi_id"`
	ROILabel string `json:"roi_label"`
	RatingA  *int   `json:"rt1_rating,omitempty"`
	RatingB  *int   `json:"rt2_rating,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// Store holds the rating records for all common ROIs, keyed by ROI name,
// plus the snapshot captured at load that reset restores.
type Store struct {
	order    []string
	roiIDs   map[string]string
	records  map[string]Record
	snapshot map[string]Record
}

// NewStore builds a store for the given ROIs, pre-seeded from prior
// feedback. The seeded state becomes the reset snapshot: reset undoes
// the reviewer's edits, it does not erase history.
func NewStore(rois []string, roiIDs map[string]string, prior map[string]session.Feedback) *Store {
	s := &Store{
		order:    append([]string(nil), rois...),
		roiIDs:   roiIDs,
		records:  make(map[string]Record, len(rois)),
		snapshot: make(map[string]Record, len(rois)),
	}

	for _, name := range rois {
		var rec Record
		if fb, ok := prior[name]; ok {
			if fb.RT1Rating != nil {
				rec.RatingA = *fb.RT1Rating
			}
			if fb.RT2Rating != nil {
				rec.RatingB = *fb.RT2Rating
			}
			rec.Comment = fb.Comment
			if fb.Include != nil {
				rec.Include = *fb.Include
			} else {
				rec.Include = !rec.empty()
			}
		}
		s.records[name] = rec
		s.snapshot[name] = rec
	}

	return s
}

// Record returns one ROI's current state.
func (s *Store) Record(roi string) (Record, bool) {
	rec, ok := s.records[roi]
	return rec, ok
}

// SetRating scores one ROI for one structure set and marks it for
// inclusion.
func (s *Store) SetRating(roi string, set StructureSet, value int) error {
	rec, ok := s.records[roi]
	if !ok {
		return fmt.Errorf("unknown ROI %q", roi)
	}
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%s: rating must be %d-%d, got %d", roi, MinRating, MaxRating, value)
	}

	switch set {
	case SetA:
		rec.RatingA = value
	case SetB:
		rec.RatingB = value
	}
	rec.Include = true
	s.records[roi] = rec
	return nil
}

// ClearRating removes one ROI's score for one set, leaving the include
// flag as the reviewer last set it.
func (s *Store) ClearRating(roi string, set StructureSet) {
	rec, ok := s.records[roi]
	if !ok {
		return
	}
	switch set {
	case SetA:
		rec.RatingA = 0
	case SetB:
		rec.RatingB = 0
	}
	s.records[roi] = rec
}

// SetComment stores one ROI's free-text comment. A non-empty comment
// marks the ROI for inclusion; saving empty text clears any existing
// comment.
func (s *Store) SetComment(roi, text string) error {
	rec, ok := s.records[roi]
	if !ok {
		return fmt.Errorf("unknown ROI %q", roi)
	}
	rec.Comment = text
	if text != "" {
		rec.Include = true
	}
	s.records[roi] = rec
	return nil
}

// SetInclude toggles one ROI's submission flag directly.
func (s *Store) SetInclude(roi string, include bool) {
	rec, ok := s.records[roi]
	if !ok {
		return
	}
	rec.Include = include
	s.records[roi] = rec
}

// Reset restores every record to the snapshot captured at load.
func (s *Store) Reset() {
	for name, rec := range s.snapshot {
		s.records[name] = rec
	}
}

// Batch gathers the submission rows: every included ROI that has at
// least one non-empty field, in the session's ROI order. An empty batch
// means there is nothing to submit.
func (s *Store) Batch() []Entry {
	var entries []Entry
	for _, name := range s.order {
		rec := s.records[name]
		if !rec.Include || rec.empty() {
			continue
		}

		entry := Entry{ROIID: s.roiIDs[name], ROILabel: name, Comment: rec.Comment}
		if rec.RatingA != 0 {
			v := rec.RatingA
			entry.RatingA = &v
		}
		if rec.RatingB != 0 {
			v := rec.RatingB
			entry.RatingB = &v
		}
		entries = append(entries, entry)
	}
	return entries
}
