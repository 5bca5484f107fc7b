package launcher

import (
	"fmt"
)

// Stop terminates the server recorded in the state file.
// Returns the stopped state, or (nil, nil) when nothing is running.
func Stop(statePath string) (*ServerState, error) {
	sf := NewStateFile(statePath)

	st, err := sf.Running()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}

	if err := terminateProcess(st.PID); err != nil {
		return st, fmt.Errorf("failed to stop server: %w", err)
	}

	sf.Remove()
	return st, nil
}

// Status returns the recorded server state if its process is alive,
// or (nil, nil) when no server is running.
func Status(statePath string) (*ServerState, error) {
	return NewStateFile(statePath).Running()
}
