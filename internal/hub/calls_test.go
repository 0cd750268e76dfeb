package hub

import (
	"testing"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

func TestCallTableCreate(t *testing.T) {
	table := NewCallTable(logger.NewNop())

	session := table.Create("c1", "alice", "bob", model.CallTypeVideo)
	if session.State != model.CallConnecting {
		t.Errorf("state = %q, want %q", session.State, model.CallConnecting)
	}
	if session.CallerID != "alice" || session.CalleeID != "bob" {
		t.Errorf("participants = %q/%q, want alice/bob", session.CallerID, session.CalleeID)
	}
	if session.Type != model.CallTypeVideo {
		t.Errorf("type = %q, want video", session.Type)
	}

	// Retransmitted initiate_call returns the existing session unchanged.
	again := table.Create("c1", "mallory", "bob", model.CallTypeAudio)
	if again.CallerID != "alice" {
		t.Errorf("retransmit overwrote caller: %q", again.CallerID)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
}

func TestCallTableActivation(t *testing.T) {
	table := NewCallTable(logger.NewNop())
	table.Create("c1", "alice", "bob", model.CallTypeAudio)

	session, ok := table.ObserveSignal("c1", "offer")
	if !ok {
		t.Fatal("expected known call ID")
	}
	if session.State != model.CallConnecting {
		t.Errorf("offer alone moved state to %q", session.State)
	}

	// ICE candidates do not drive the state machine.
	session, _ = table.ObserveSignal("c1", "ice-candidate")
	if session.State != model.CallConnecting {
		t.Errorf("ice-candidate moved state to %q", session.State)
	}

	session, _ = table.ObserveSignal("c1", "answer")
	if session.State != model.CallActive {
		t.Errorf("state = %q after offer+answer, want %q", session.State, model.CallActive)
	}
}

func TestCallTableObserveSignalUnknownID(t *testing.T) {
	table := NewCallTable(logger.NewNop())
	if _, ok := table.ObserveSignal("nope", "offer"); ok {
		t.Error("unknown call ID should report ok=false")
	}
}

func TestCallTableEnd(t *testing.T) {
	table := NewCallTable(logger.NewNop())
	table.Create("c1", "alice", "bob", model.CallTypeAudio)

	session, ok := table.End("c1", "hangup")
	if !ok {
		t.Fatal("expected End to find the session")
	}
	if session.State != model.CallEnded {
		t.Errorf("state = %q, want %q", session.State, model.CallEnded)
	}
	if session.EndedAt == nil {
		t.Error("EndedAt should be set")
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}

	// Ending twice is a no-op, not an error.
	if _, ok := table.End("c1", "hangup"); ok {
		t.Error("second End should report ok=false")
	}
}

func TestCallTableEndForUser(t *testing.T) {
	table := NewCallTable(logger.NewNop())
	table.Create("c1", "alice", "bob", model.CallTypeAudio)
	table.Create("c2", "carol", "alice", model.CallTypeVideo)
	table.Create("c3", "dave", "erin", model.CallTypeAudio)

	ended := table.EndForUser("alice", "disconnect")
	if len(ended) != 2 {
		t.Fatalf("ended %d sessions, want 2", len(ended))
	}
	for _, session := range ended {
		if !session.Participant("alice") {
			t.Errorf("ended session %q does not involve alice", session.ID)
		}
		if session.State != model.CallEnded {
			t.Errorf("session %q state = %q, want ended", session.ID, session.State)
		}
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1 remaining", table.Len())
	}
	if _, ok := table.Get("c3"); !ok {
		t.Error("unrelated session should survive")
	}
}
