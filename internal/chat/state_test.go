package chat

import (
	"testing"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from ViewState
		to   ViewState
	}{
		{Idle, Loading},
		{Loading, Active},
		{Loading, Idle},
		{Active, Idle},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	// A join cannot complete without being in flight first.
	m := NewMachine(nil)
	if err := m.Transition(Active); err == nil {
		t.Error("Transition(IDLE -> ACTIVE) should fail")
	}

	// An active room cannot be re-joined without teardown.
	m = NewMachine(nil)
	walkTo(t, m, Active)
	if err := m.Transition(Loading); err == nil {
		t.Error("Transition(ACTIVE -> LOADING) should fail; must leave first")
	}
	if m.Current() != Active {
		t.Errorf("state = %s, want ACTIVE (should not have changed)", m.Current())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("chat.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != "chat.view_changed" {
		t.Errorf("event kind = %q, want chat.view_changed", evt.Kind)
	}
	change, ok := evt.Payload.(StateChange)
	if !ok {
		t.Fatalf("payload type = %T, want StateChange", evt.Payload)
	}
	if change.From != Idle || change.To != Loading {
		t.Errorf("change = %v -> %v, want IDLE -> LOADING", change.From, change.To)
	}
}

// walkTo drives the machine into the given state through valid transitions.
func walkTo(t *testing.T, m *Machine, target ViewState) {
	t.Helper()
	switch target {
	case Idle:
	case Loading:
		mustTransition(t, m, Loading)
	case Active:
		mustTransition(t, m, Loading)
		mustTransition(t, m, Active)
	}
}

func mustTransition(t *testing.T, m *Machine, to ViewState) {
	t.Helper()
	if err := m.Transition(to); err != nil {
		t.Fatalf("walk transition to %s: %v", to, err)
	}
}
