package session

import (
	"errors"
	"fmt"

	"github.com/ironsheep/labelscan/internal/imaging"
)

// ErrInvalidTransition is returned when an event is not allowed in the
// session's current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is a step of the label scanning interaction.
type State int

const (
	Idle State = iota
	ImageLoaded
	RegionSelected
	TextExtracted
	TextVerified
	ResultsDisplayed
)

var stateNames = [...]string{
	Idle:             "idle",
	ImageLoaded:      "image_loaded",
	RegionSelected:   "region_selected",
	TextExtracted:    "text_extracted",
	TextVerified:     "text_verified",
	ResultsDisplayed: "results_displayed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText lets states appear by name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event is a user action that moves a session between states.
type Event int

const (
	Upload Event = iota
	SelectRegion
	Extract
	EditText
	Search
)

var eventNames = [...]string{
	Upload:       "upload",
	SelectRegion: "select_region",
	Extract:      "extract",
	EditText:     "edit_text",
	Search:       "search",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Next returns the state reached by applying e in s.
//
// Upload is accepted everywhere. SelectRegion and EditText need an image.
// Extract needs a selected region and returns imaging.ErrNoSelection when an
// image is loaded without one. Search needs recognized or typed text.
func Next(s State, e Event) (State, error) {
	switch e {
	case Upload:
		return ImageLoaded, nil
	case SelectRegion:
		if s >= ImageLoaded {
			return RegionSelected, nil
		}
	case Extract:
		if s == ImageLoaded {
			return s, imaging.ErrNoSelection
		}
		if s >= RegionSelected {
			return TextExtracted, nil
		}
	case EditText:
		if s >= ImageLoaded {
			return TextVerified, nil
		}
	case Search:
		if s >= TextExtracted {
			return ResultsDisplayed, nil
		}
	}
	return s, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, e, s)
}
