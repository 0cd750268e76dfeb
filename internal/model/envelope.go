// Package model defines the wire and domain types for the communication hub.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EnvelopeType tags a frame exchanged over the persistent connection.
type EnvelopeType string

const (
	// Inbound frame types.
	TypeChatMessage  EnvelopeType = "chat_message"
	TypeWebRTCSignal EnvelopeType = "webrtc_signal"
	TypeInitiateCall EnvelopeType = "initiate_call"
	TypeCallResponse EnvelopeType = "call_response"
	TypeEndCall      EnvelopeType = "end_call"

	// Outbound frame types.
	TypeChatResponse EnvelopeType = "chat_response"
	TypeIncomingCall EnvelopeType = "incoming_call"
	TypeCallEnded    EnvelopeType = "call_ended"
)

// ErrUnknownEnvelope is returned for frames with an unrecognized type tag.
var ErrUnknownEnvelope = errors.New("unknown envelope type")

// Envelope is the closed set of inbound frame variants. Exactly one
// concrete type exists per wire tag; unknown tags are rejected at parse
// time rather than silently ignored.
type Envelope interface {
	Kind() EnvelopeType
}

// ChatTurn is one entry of the rolling chat history a client may attach
// to a chat_message frame.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessageFrame asks the hub for an AI-generated reply.
type ChatMessageFrame struct {
	FromUserID  string
	Message     string
	ChatHistory []ChatTurn
	ProfileID   string
}

func (ChatMessageFrame) Kind() EnvelopeType { return TypeChatMessage }

// WebRTCSignalFrame relays an opaque signaling payload (offer, answer,
// ice-candidate) between the two parties of a call. The hub never
// inspects the payload beyond its type field.
type WebRTCSignalFrame struct {
	FromUserID   string
	TargetUserID string
	Signal       json.RawMessage
	CallID       string
}

func (WebRTCSignalFrame) Kind() EnvelopeType { return TypeWebRTCSignal }

// InitiateCallFrame starts a 1:1 call toward the target user.
type InitiateCallFrame struct {
	FromUserID   string
	TargetUserID string
	CallType     CallType
	CallID       string
}

func (InitiateCallFrame) Kind() EnvelopeType { return TypeInitiateCall }

// CallResponseFrame accepts or declines an incoming call.
type CallResponseFrame struct {
	FromUserID   string
	TargetUserID string
	Accepted     bool
	CallID       string
}

func (CallResponseFrame) Kind() EnvelopeType { return TypeCallResponse }

// EndCallFrame terminates a call from either side.
type EndCallFrame struct {
	FromUserID   string
	TargetUserID string
	CallID       string
}

func (EndCallFrame) Kind() EnvelopeType { return TypeEndCall }

// rawEnvelope is the superset of fields across all inbound frame kinds.
type rawEnvelope struct {
	Type         EnvelopeType    `json:"type"`
	Message      string          `json:"message"`
	ChatHistory  []ChatTurn      `json:"chatHistory"`
	Personality  string          `json:"personality"`
	TargetUserID string          `json:"targetUserId"`
	CallType     CallType        `json:"callType"`
	CallID       string          `json:"callId"`
	Accepted     *bool           `json:"accepted"`
	Signal       json.RawMessage `json:"signal"`
}

// ParseEnvelope decodes one inbound frame into its typed variant.
// fromUserID is taken from the connection identity, never from the frame,
// so a client cannot spoof another sender.
func ParseEnvelope(data []byte, fromUserID string) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch raw.Type {
	case TypeChatMessage:
		if raw.Message == "" {
			return nil, errors.New("chat_message requires a message")
		}
		return ChatMessageFrame{
			FromUserID:  fromUserID,
			Message:     raw.Message,
			ChatHistory: raw.ChatHistory,
			ProfileID:   raw.Personality,
		}, nil

	case TypeWebRTCSignal:
		if raw.TargetUserID == "" {
			return nil, errors.New("webrtc_signal requires targetUserId")
		}
		return WebRTCSignalFrame{
			FromUserID:   fromUserID,
			TargetUserID: raw.TargetUserID,
			Signal:       raw.Signal,
			CallID:       raw.CallID,
		}, nil

	case TypeInitiateCall:
		if raw.TargetUserID == "" || raw.CallID == "" {
			return nil, errors.New("initiate_call requires targetUserId and callId")
		}
		callType := raw.CallType
		if callType != CallTypeVideo {
			callType = CallTypeAudio
		}
		return InitiateCallFrame{
			FromUserID:   fromUserID,
			TargetUserID: raw.TargetUserID,
			CallType:     callType,
			CallID:       raw.CallID,
		}, nil

	case TypeCallResponse:
		if raw.TargetUserID == "" {
			return nil, errors.New("call_response requires targetUserId")
		}
		accepted := raw.Accepted != nil && *raw.Accepted
		return CallResponseFrame{
			FromUserID:   fromUserID,
			TargetUserID: raw.TargetUserID,
			Accepted:     accepted,
			CallID:       raw.CallID,
		}, nil

	case TypeEndCall:
		if raw.TargetUserID == "" {
			return nil, errors.New("end_call requires targetUserId")
		}
		return EndCallFrame{
			FromUserID:   fromUserID,
			TargetUserID: raw.TargetUserID,
			CallID:       raw.CallID,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvelope, raw.Type)
	}
}

// ChatResponseFrame is the reply sent back to the author of a chat_message.
type ChatResponseFrame struct {
	Type               EnvelopeType `json:"type"`
	Message            string       `json:"message"`
	SupportiveActions  []string     `json:"supportiveActions"`
	RiskLevel          RiskLevel    `json:"riskLevel"`
	EscalationRequired bool         `json:"escalationRequired"`
}

// NewChatResponse builds a chat_response frame from a generated reply.
func NewChatResponse(reply Reply) ChatResponseFrame {
	return ChatResponseFrame{
		Type:               TypeChatResponse,
		Message:            reply.Message,
		SupportiveActions:  reply.SupportiveActions,
		RiskLevel:          reply.RiskLevel,
		EscalationRequired: reply.EscalationRequired,
	}
}

// IncomingCallFrame notifies the callee that a call has been initiated.
type IncomingCallFrame struct {
	Type       EnvelopeType `json:"type"`
	FromUserID string       `json:"fromUserId"`
	CallType   CallType     `json:"callType"`
	CallID     string       `json:"callId"`
}

// CallResponseRelay forwards an accept/decline to the caller.
type CallResponseRelay struct {
	Type       EnvelopeType `json:"type"`
	FromUserID string       `json:"fromUserId"`
	Accepted   bool         `json:"accepted"`
	CallID     string       `json:"callId"`
}

// SignalRelay forwards a webrtc_signal payload with the sender substituted.
type SignalRelay struct {
	Type       EnvelopeType    `json:"type"`
	FromUserID string          `json:"fromUserId"`
	Signal     json.RawMessage `json:"signal"`
	CallID     string          `json:"callId"`
}

// CallEndedFrame notifies the remaining party that the call is over.
type CallEndedFrame struct {
	Type       EnvelopeType `json:"type"`
	FromUserID string       `json:"fromUserId"`
	CallID     string       `json:"callId"`
}
