package session

import "fmt"

// State is the capture session state.
type State int

const (
	// StateIdle means no capture is running and no request is outstanding.
	StateIdle State = iota
	// StateRecording means observations are being buffered.
	StateRecording
	// StateInterpreting means a buffer snapshot has been submitted and the
	// interpretation request has not settled.
	StateInterpreting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateInterpreting:
		return "interpreting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateRecording, StateInterpreting} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}
