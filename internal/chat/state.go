package chat

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
)

// ViewState represents the conversation view lifecycle.
type ViewState string

const (
	// Idle: no room joined, no messages held.
	Idle ViewState = "IDLE"
	// Loading: a join is in flight.
	Loading ViewState = "LOADING"
	// Active: room and messages loaded, polling engaged.
	Active ViewState = "ACTIVE"
)

// validTransitions defines allowed view state transitions. Loading falls back
// to Idle when a join fails; Active returns to Idle on leave or room switch.
var validTransitions = map[ViewState][]ViewState{
	Idle:    {Loading},
	Loading: {Active, Idle},
	Active:  {Idle},
}

// Machine tracks and enforces conversation view state transitions.
type Machine struct {
	mu      sync.RWMutex
	current ViewState
	bus     *bus.Bus
}

// NewMachine creates a machine starting in Idle.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to ViewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "chat.view_changed",
			Timestamp: time.Now(),
			Payload: StateChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StateChange is the payload for view state change events.
type StateChange struct {
	From ViewState
	To   ViewState
}
