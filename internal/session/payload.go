// Package session holds the immutable per-review payload: ordered CT
// slices, the two structure sets under comparison, and the identifiers
// carried through to feedback submission.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// Slice is one CT cross-section. Pixels are stored row-major with
// length Width*Height. Immutable once loaded.
type Slice struct {
	Index          int       `json:"index"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Pixels         []int32   `json:"pixels"`
	PixelSpacing   []float64 `json:"pixel_spacing"`
	ImagePosition  []float64 `json:"image_position"`
	SliceLocation  float64   `json:"slice_location"`
	InstanceNumber int       `json:"instance_number"`
}

// Z is the slice's position along the patient axis. The z component of
// the image position is authoritative; the slice-location scalar is a
// fallback for sources that omit the position.
func (s *Slice) Z() float64 {
	if len(s.ImagePosition) >= 3 {
		return s.ImagePosition[2]
	}
	return s.SliceLocation
}

// Point is one 3-D contour vertex in patient space (mm). On the wire it
// is a bare [x, y, z] array.
type Point r3.Vec

func (p *Point) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return err
	}
	if len(coords) != 3 {
		return fmt.Errorf("contour point needs 3 coordinates, got %d", len(coords))
	}
	*p = Point{X: coords[0], Y: coords[1], Z: coords[2]}
	return nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{p.X, p.Y, p.Z})
}

// Contour is one closed planar polygon. All points are assumed coplanar
// at a single z; source data may violate that, so the first point's z is
// used as the contour's z.
type Contour struct {
	Points        []Point `json:"points"`
	GeometricType string  `json:"geometric_type,omitempty"`
}

// Z returns the contour's plane position, or false when the contour has
// no points at all.
func (c *Contour) Z() (float64, bool) {
	if len(c.Points) == 0 {
		return 0, false
	}
	return c.Points[0].Z, true
}

// ContourGroup is the ordered polygons of one ROI. An ROI may have zero,
// one or several polygons at a given z (disjoint regions).
type ContourGroup struct {
	Number   int       `json:"number,omitempty"`
	Contours []Contour `json:"contours"`
	Color    []float64 `json:"color,omitempty"`
}

// ContourSet maps ROI name to its contour group. Two independently
// authored sets exist per session.
type ContourSet map[string]ContourGroup

// Feedback is one prior rating row used to pre-seed the rating panel.
type Feedback struct {
	RT1Rating *int   `json:"rt1_rating,omitempty"`
	RT2Rating *int   `json:"rt2_rating,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Include   *bool  `json:"include,omitempty"`
}

// Session is the full viewer payload as produced by the web layer.
type Session struct {
	PatientID        string              `json:"patient_id"`
	PatientName      string              `json:"patient_name,omitempty"`
	StudyUID         string              `json:"study_uid"`
	StudyDate        string              `json:"study_date,omitempty"`
	StudyDescription string              `json:"study_description,omitempty"`
	RT1Label         string              `json:"rt1_label"`
	RT2Label         string              `json:"rt2_label"`
	RT1SOPUID        string              `json:"rt1_sop_uid"`
	RT2SOPUID        string              `json:"rt2_sop_uid"`
	Slices           []Slice             `json:"ct_data"`
	RT1Contours      ContourSet          `json:"rt1_contours"`
	RT2Contours      ContourSet          `json:"rt2_contours"`
	CommonStructures []string            `json:"common_structures"`
	ROIData          map[string]string   `json:"roi_data"`
	InitialFeedback  map[string]Feedback `json:"initial_feedback,omitempty"`
}

// Load decodes and validates a session payload.
func Load(r io.Reader) (*Session, error) {
	var sess Session
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sess); err != nil {
		return nil, fmt.Errorf("decoding session payload: %w", err)
	}
	if err := sess.validate(); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LoadFile reads a session payload from a JSON file on disk.
func LoadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session payload: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (s *Session) validate() error {
	if len(s.Slices) == 0 {
		return fmt.Errorf("session for patient %q has no CT slices", s.PatientID)
	}
	for i := range s.Slices {
		sl := &s.Slices[i]
		if sl.Width <= 0 || sl.Height <= 0 {
			return fmt.Errorf("slice %d has invalid dimensions %dx%d", i, sl.Width, sl.Height)
		}
		if len(sl.Pixels) != sl.Width*sl.Height {
			return fmt.Errorf("slice %d has %d pixels, want %d", i, len(sl.Pixels), sl.Width*sl.Height)
		}
	}
	return nil
}
