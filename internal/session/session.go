package session

import (
	"sync"
	"time"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/ingredients"
	"github.com/ironsheep/labelscan/internal/pubchem"
)

// Session is the state of one user's scan. Callers hold the lock for the
// whole of an operation so steps on one session never interleave.
type Session struct {
	mu sync.Mutex

	ID    string
	State State

	Source  *imaging.SourceImage
	Display imaging.DisplayGeometry

	// Region is the crop box in source pixels. Suggested is set after upload
	// when a text block was detected and the user has not chosen yet.
	Region    imaging.Region
	Suggested imaging.Region

	Text       string
	Candidates []ingredients.Candidate
	Results    []pubchem.Result

	Created time.Time
	Touched time.Time
}

// Lock acquires the session for an operation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Apply moves the session to the state reached by e and clears the fields
// that the new state invalidates. On error the session is unchanged.
// The caller must hold the lock.
func (s *Session) Apply(e Event) error {
	next, err := Next(s.State, e)
	if err != nil {
		return err
	}

	switch e {
	case Upload:
		s.Source = nil
		s.Display = imaging.DisplayGeometry{}
		s.Region = imaging.Region{}
		s.Suggested = imaging.Region{}
		s.Text = ""
		s.Candidates = nil
		s.Results = nil
	case SelectRegion, Extract, EditText:
		s.Candidates = nil
		s.Results = nil
	}

	s.State = next
	s.Touched = time.Now()
	return nil
}

// Snapshot is a read-only copy of a session for rendering.
type Snapshot struct {
	ID         string                  `json:"session_id"`
	State      State                   `json:"state"`
	Width      int                     `json:"width,omitempty"`
	Height     int                     `json:"height,omitempty"`
	Display    imaging.DisplayGeometry `json:"display"`
	Region     *imaging.Region         `json:"region,omitempty"`
	Suggested  *imaging.Region         `json:"suggested,omitempty"`
	Text       string                  `json:"text"`
	Candidates []ingredients.Candidate `json:"candidates,omitempty"`
	Results    []pubchem.Result        `json:"results,omitempty"`
}

// Snapshot copies the displayable fields. The caller must hold the lock.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		State:      s.State,
		Display:    s.Display,
		Text:       s.Text,
		Candidates: append([]ingredients.Candidate(nil), s.Candidates...),
		Results:    append([]pubchem.Result(nil), s.Results...),
	}
	if s.Source != nil {
		snap.Width = s.Source.Width
		snap.Height = s.Source.Height
	}
	if !s.Region.Empty() {
		r := s.Region
		snap.Region = &r
	}
	if !s.Suggested.Empty() {
		r := s.Suggested
		snap.Suggested = &r
	}
	return snap
}
