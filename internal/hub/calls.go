package hub

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// callEntry is a live session plus the signaling observations that drive
// the Connecting to Active transition. The hub never parses SDP; it only
// watches which signal types have passed through in each direction.
type callEntry struct {
	session    model.CallSession
	offerSeen  bool
	answerSeen bool
}

// CallTable tracks every live call session, keyed by the caller-issued
// call ID that both sides echo on every signaling frame.
type CallTable struct {
	mu      sync.Mutex
	entries map[string]*callEntry
	logger  *logger.Logger
}

// NewCallTable creates an empty call table.
func NewCallTable(log *logger.Logger) *CallTable {
	return &CallTable{
		entries: make(map[string]*callEntry),
		logger:  log,
	}
}

// Create registers a session in Connecting state. A retransmitted
// initiate_call for a known ID returns the existing session unchanged.
func (t *CallTable) Create(callID, callerID, calleeID string, callType model.CallType) model.CallSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.entries[callID]; ok {
		return entry.session
	}

	entry := &callEntry{
		session: model.CallSession{
			ID:        callID,
			CallerID:  callerID,
			CalleeID:  calleeID,
			Type:      callType,
			State:     model.CallConnecting,
			StartedAt: time.Now(),
		},
	}
	t.entries[callID] = entry
	metrics.CallSessionsActive.Inc()

	t.logger.Info("call session created",
		zap.String("call_id", callID),
		zap.String("caller", callerID),
		zap.String("callee", calleeID),
		zap.String("type", string(callType)),
	)
	return entry.session
}

// Get returns a snapshot of the session for callID.
func (t *CallTable) Get(callID string) (model.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[callID]
	if !ok {
		return model.CallSession{}, false
	}
	return entry.session, true
}

// ObserveSignal records a relayed signal type for the session. Once an
// offer and an answer have both passed through, the exchange is
// bidirectional and the session becomes Active. This is a genuine
// signaling observation, not a timer.
func (t *CallTable) ObserveSignal(callID, signalType string) (model.CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[callID]
	if !ok {
		// Unknown call ID: no-op, idempotent against retransmits.
		return model.CallSession{}, false
	}

	switch signalType {
	case "offer":
		entry.offerSeen = true
	case "answer":
		entry.answerSeen = true
	}

	if entry.session.State == model.CallConnecting && entry.offerSeen && entry.answerSeen {
		entry.session.State = model.CallActive
		t.logger.Info("call active", zap.String("call_id", callID))
	}
	return entry.session, true
}

// End moves the session to Ended and removes it from the table. Unknown
// call IDs are a no-op. Returns the final session snapshot.
func (t *CallTable) End(callID, reason string) (model.CallSession, bool) {
	t.mu.Lock()
	entry, ok := t.entries[callID]
	if ok {
		delete(t.entries, callID)
		now := time.Now()
		entry.session.State = model.CallEnded
		entry.session.EndedAt = &now
	}
	t.mu.Unlock()

	if !ok {
		return model.CallSession{}, false
	}

	metrics.CallSessionsActive.Dec()
	t.logger.Info("call session ended",
		zap.String("call_id", callID),
		zap.String("reason", reason),
	)
	return entry.session, true
}

// EndForUser ends every session the user participates in and returns the
// final snapshots so the router can notify the remaining parties. Used
// when a connection drops: an unregister is an implicit end_call.
func (t *CallTable) EndForUser(userID, reason string) []model.CallSession {
	t.mu.Lock()
	var affected []string
	for id, entry := range t.entries {
		if entry.session.Participant(userID) {
			affected = append(affected, id)
		}
	}
	t.mu.Unlock()

	var ended []model.CallSession
	for _, id := range affected {
		if session, ok := t.End(id, reason); ok {
			ended = append(ended, session)
		}
	}
	return ended
}

// Len returns the number of live sessions.
func (t *CallTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
