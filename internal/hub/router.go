package hub

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// ChatHandler produces a reply for an inbound chat message. Implemented
// by the chat service; the router never blocks on risk evaluation.
type ChatHandler interface {
	HandleChat(ctx context.Context, frame model.ChatMessageFrame) model.Reply
}

// Router dispatches inbound envelopes to the chat pipeline or the
// call-signaling pipeline. Frames from the same sender arrive in send
// order because each connection has a single read loop; no ordering is
// guaranteed across senders.
type Router struct {
	registry *Registry
	calls    *CallTable
	chat     ChatHandler
	logger   *logger.Logger
}

// NewRouter creates a router over the given registry and call table.
func NewRouter(registry *Registry, calls *CallTable, chat ChatHandler, log *logger.Logger) *Router {
	return &Router{
		registry: registry,
		calls:    calls,
		chat:     chat,
		logger:   log,
	}
}

// Route dispatches one inbound envelope by its type tag. Malformed or
// undeliverable frames are dropped, never fatal: the sender times out
// client-side, there is no synchronous delivery guarantee.
func (r *Router) Route(ctx context.Context, env model.Envelope) {
	metrics.RecordFrame(string(env.Kind()))

	switch frame := env.(type) {
	case model.ChatMessageFrame:
		r.routeChat(ctx, frame)
	case model.InitiateCallFrame:
		r.routeInitiateCall(ctx, frame)
	case model.CallResponseFrame:
		r.routeCallResponse(ctx, frame)
	case model.WebRTCSignalFrame:
		r.routeSignal(ctx, frame)
	case model.EndCallFrame:
		r.routeEndCall(ctx, frame)
	default:
		metrics.RecordDrop("unknown_type")
		r.logger.Warn("dropping envelope with unhandled type",
			zap.String("type", string(env.Kind())),
		)
	}
}

// routeChat forwards the message to the chat pipeline and replies to the
// sender only, never broadcast.
func (r *Router) routeChat(ctx context.Context, frame model.ChatMessageFrame) {
	reply := r.chat.HandleChat(ctx, frame)
	r.send(ctx, frame.FromUserID, model.NewChatResponse(reply))
}

func (r *Router) routeInitiateCall(ctx context.Context, frame model.InitiateCallFrame) {
	if _, ok := r.registry.Lookup(frame.TargetUserID); !ok {
		// Callee is offline: drop the frame, the caller times out.
		metrics.RecordDrop("target_absent")
		r.logger.Debug("initiate_call target absent",
			zap.String("from", frame.FromUserID),
			zap.String("target", frame.TargetUserID),
		)
		return
	}

	r.calls.Create(frame.CallID, frame.FromUserID, frame.TargetUserID, frame.CallType)
	r.send(ctx, frame.TargetUserID, model.IncomingCallFrame{
		Type:       model.TypeIncomingCall,
		FromUserID: frame.FromUserID,
		CallType:   frame.CallType,
		CallID:     frame.CallID,
	})
}

func (r *Router) routeCallResponse(ctx context.Context, frame model.CallResponseFrame) {
	if !frame.Accepted {
		// Decline ends the session immediately; the caller is notified
		// through the relayed response below.
		r.calls.End(frame.CallID, "declined")
	}

	r.send(ctx, frame.TargetUserID, model.CallResponseRelay{
		Type:       model.TypeCallResponse,
		FromUserID: frame.FromUserID,
		Accepted:   frame.Accepted,
		CallID:     frame.CallID,
	})
}

// routeSignal relays offer/answer/ice-candidate payloads verbatim. The
// state machine only observes the signal type; payload contents are
// never validated here.
func (r *Router) routeSignal(ctx context.Context, frame model.WebRTCSignalFrame) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame.Signal, &header); err == nil && frame.CallID != "" {
		r.calls.ObserveSignal(frame.CallID, header.Type)
	}

	r.send(ctx, frame.TargetUserID, model.SignalRelay{
		Type:       model.TypeWebRTCSignal,
		FromUserID: frame.FromUserID,
		Signal:     frame.Signal,
		CallID:     frame.CallID,
	})
}

func (r *Router) routeEndCall(ctx context.Context, frame model.EndCallFrame) {
	r.calls.End(frame.CallID, "end_call")
	r.send(ctx, frame.TargetUserID, model.CallEndedFrame{
		Type:       model.TypeCallEnded,
		FromUserID: frame.FromUserID,
		CallID:     frame.CallID,
	})
}

// Disconnect tears down a departing connection: the registry entry is
// removed and every call the user participated in is force-ended, with
// the remaining party notified.
func (r *Router) Disconnect(ctx context.Context, userID string, conn *Connection) {
	if conn != nil {
		if !r.registry.UnregisterConn(userID, conn) {
			// Lost a last-writer-wins race; the replacement connection
			// owns the calls now.
			return
		}
	} else {
		r.registry.Unregister(userID)
	}

	for _, session := range r.calls.EndForUser(userID, "disconnect") {
		peer := session.Peer(userID)
		if peer == "" {
			continue
		}
		r.send(ctx, peer, model.CallEndedFrame{
			Type:       model.TypeCallEnded,
			FromUserID: userID,
			CallID:     session.ID,
		})
	}
}

// send marshals and delivers a frame to the target, dropping silently
// when the target is absent or the write fails.
func (r *Router) send(ctx context.Context, userID string, payload any) {
	conn, ok := r.registry.Lookup(userID)
	if !ok {
		metrics.RecordDrop("target_absent")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordDrop("marshal_error")
		r.logger.Error("failed to marshal outbound frame", zap.Error(err))
		return
	}

	if err := conn.Socket.Send(ctx, data); err != nil {
		// The write failing is the disconnect signal for abandoned
		// sockets; the read loop handles cleanup.
		metrics.RecordDrop("write_error")
		r.logger.Debug("outbound write failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
