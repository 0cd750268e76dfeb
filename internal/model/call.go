package model

import (
	"time"
)

// CallType distinguishes audio-only from video calls.
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// CallState is the lifecycle state of a peer-to-peer call.
type CallState string

const (
	// CallConnecting covers the window from initiate_call until the
	// signaling exchange completes.
	CallConnecting CallState = "connecting"
	// CallActive means both parties have exchanged offer and answer.
	CallActive CallState = "active"
	// CallEnded is terminal: decline, hang-up, or disconnect.
	CallEnded CallState = "ended"
)

// CallSession is the lifecycle record for one 1:1 signaling exchange.
// It is keyed by a caller-issued call ID that both sides echo on every
// subsequent signaling frame.
type CallSession struct {
	ID        string     `json:"id"`
	CallerID  string     `json:"callerId"`
	CalleeID  string     `json:"calleeId"`
	Type      CallType   `json:"type"`
	State     CallState  `json:"state"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Participant reports whether the given user is one of the two parties.
func (s *CallSession) Participant(userID string) bool {
	return s.CallerID == userID || s.CalleeID == userID
}

// Peer returns the other party of the call, or "" if userID is not a
// participant.
func (s *CallSession) Peer(userID string) string {
	switch userID {
	case s.CallerID:
		return s.CalleeID
	case s.CalleeID:
		return s.CallerID
	}
	return ""
}
