package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mindmesh-ai/companion-hub/internal/model"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
)

type fakeChat struct {
	reply model.Reply
	calls int
}

func (f *fakeChat) HandleChat(ctx context.Context, frame model.ChatMessageFrame) model.Reply {
	f.calls++
	return f.reply
}

func newTestRouter(chat ChatHandler) (*Router, *Registry, *CallTable) {
	log := logger.NewNop()
	registry := NewRegistry(log)
	calls := NewCallTable(log)
	return NewRouter(registry, calls, chat, log), registry, calls
}

func decodeFrame(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("failed to decode outbound frame: %v", err)
	}
	return frame
}

func TestRouterChatRepliesToSenderOnly(t *testing.T) {
	chat := &fakeChat{reply: model.Reply{
		Message:           "hang in there",
		SupportiveActions: []string{"take a walk"},
		RiskLevel:         model.RiskLow,
	}}
	router, registry, _ := newTestRouter(chat)

	sender := &fakeSocket{}
	other := &fakeSocket{}
	registry.Register("u1", sender)
	registry.Register("u2", other)

	router.Route(context.Background(), model.ChatMessageFrame{
		FromUserID: "u1",
		Message:    "rough day",
	})

	if chat.calls != 1 {
		t.Fatalf("chat handler called %d times, want 1", chat.calls)
	}
	frames := sender.sent()
	if len(frames) != 1 {
		t.Fatalf("sender got %d frames, want 1", len(frames))
	}
	frame := decodeFrame(t, frames[0])
	if frame["type"] != string(model.TypeChatResponse) {
		t.Errorf("type = %v, want chat_response", frame["type"])
	}
	if frame["message"] != "hang in there" {
		t.Errorf("message = %v", frame["message"])
	}
	if len(other.sent()) != 0 {
		t.Error("chat replies must never reach other users")
	}
}

func TestRouterInitiateCallDeliversIncomingCall(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	callee := &fakeSocket{}
	registry.Register("u1", caller)
	registry.Register("u2", callee)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID:   "u1",
		TargetUserID: "u2",
		CallType:     model.CallTypeVideo,
		CallID:       "c1",
	})

	frames := callee.sent()
	if len(frames) != 1 {
		t.Fatalf("callee got %d frames, want 1", len(frames))
	}
	frame := decodeFrame(t, frames[0])
	if frame["type"] != string(model.TypeIncomingCall) {
		t.Errorf("type = %v, want incoming_call", frame["type"])
	}
	if frame["fromUserId"] != "u1" {
		t.Errorf("fromUserId = %v, want u1", frame["fromUserId"])
	}
	if frame["callId"] != "c1" {
		t.Errorf("callId = %v, want c1", frame["callId"])
	}

	session, ok := calls.Get("c1")
	if !ok {
		t.Fatal("expected a call session")
	}
	if session.State != model.CallConnecting {
		t.Errorf("state = %q, want connecting", session.State)
	}
}

func TestRouterInitiateCallTargetOffline(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	registry.Register("u1", caller)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID:   "u1",
		TargetUserID: "ghost",
		CallType:     model.CallTypeAudio,
		CallID:       "c1",
	})

	// No session is created for an unreachable callee and nothing is
	// echoed back to the caller.
	if calls.Len() != 0 {
		t.Errorf("calls.Len() = %d, want 0", calls.Len())
	}
	if len(caller.sent()) != 0 {
		t.Errorf("caller got %d frames, want 0", len(caller.sent()))
	}
}

func TestRouterSignalRelaySubstitutesSender(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	callee := &fakeSocket{}
	registry.Register("u1", caller)
	registry.Register("u2", callee)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallType: model.CallTypeAudio, CallID: "c1",
	})

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	router.Route(context.Background(), model.WebRTCSignalFrame{
		FromUserID: "u1", TargetUserID: "u2", Signal: offer, CallID: "c1",
	})
	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	router.Route(context.Background(), model.WebRTCSignalFrame{
		FromUserID: "u2", TargetUserID: "u1", Signal: answer, CallID: "c1",
	})

	calleeFrames := callee.sent()
	if len(calleeFrames) != 2 { // incoming_call + offer relay
		t.Fatalf("callee got %d frames, want 2", len(calleeFrames))
	}
	relay := decodeFrame(t, calleeFrames[1])
	if relay["type"] != string(model.TypeWebRTCSignal) {
		t.Errorf("type = %v, want webrtc_signal", relay["type"])
	}
	if relay["fromUserId"] != "u1" {
		t.Errorf("fromUserId = %v, want u1", relay["fromUserId"])
	}
	signal, ok := relay["signal"].(map[string]any)
	if !ok || signal["sdp"] != "v=0" {
		t.Errorf("signal payload not relayed verbatim: %v", relay["signal"])
	}

	// Offer then answer drives the session active.
	session, _ := calls.Get("c1")
	if session.State != model.CallActive {
		t.Errorf("state = %q after both signals, want active", session.State)
	}
}

func TestRouterCallResponseDeclineEndsSession(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	callee := &fakeSocket{}
	registry.Register("u1", caller)
	registry.Register("u2", callee)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallType: model.CallTypeAudio, CallID: "c1",
	})
	router.Route(context.Background(), model.CallResponseFrame{
		FromUserID: "u2", TargetUserID: "u1", Accepted: false, CallID: "c1",
	})

	if calls.Len() != 0 {
		t.Errorf("declined session still live, calls.Len() = %d", calls.Len())
	}
	frames := caller.sent()
	if len(frames) != 1 {
		t.Fatalf("caller got %d frames, want 1", len(frames))
	}
	frame := decodeFrame(t, frames[0])
	if frame["type"] != string(model.TypeCallResponse) {
		t.Errorf("type = %v, want call_response", frame["type"])
	}
	if frame["accepted"] != false {
		t.Errorf("accepted = %v, want false", frame["accepted"])
	}
}

func TestRouterEndCall(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	callee := &fakeSocket{}
	registry.Register("u1", caller)
	registry.Register("u2", callee)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallType: model.CallTypeAudio, CallID: "c1",
	})
	router.Route(context.Background(), model.EndCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallID: "c1",
	})

	if calls.Len() != 0 {
		t.Errorf("calls.Len() = %d, want 0 after end_call", calls.Len())
	}
	frames := callee.sent()
	if len(frames) != 2 { // incoming_call + call_ended
		t.Fatalf("callee got %d frames, want 2", len(frames))
	}
	frame := decodeFrame(t, frames[1])
	if frame["type"] != string(model.TypeCallEnded) {
		t.Errorf("type = %v, want call_ended", frame["type"])
	}
}

func TestRouterDisconnectNotifiesPeer(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	caller := &fakeSocket{}
	callee := &fakeSocket{}
	conn := registry.Register("u1", caller)
	registry.Register("u2", callee)

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallType: model.CallTypeAudio, CallID: "c1",
	})

	router.Disconnect(context.Background(), "u1", conn)

	if registry.Len() != 1 {
		t.Errorf("registry.Len() = %d, want 1", registry.Len())
	}
	if calls.Len() != 0 {
		t.Errorf("calls.Len() = %d, want 0 after disconnect", calls.Len())
	}
	frames := callee.sent()
	if len(frames) != 2 { // incoming_call + call_ended
		t.Fatalf("callee got %d frames, want 2", len(frames))
	}
	frame := decodeFrame(t, frames[1])
	if frame["type"] != string(model.TypeCallEnded) {
		t.Errorf("type = %v, want call_ended", frame["type"])
	}
	if frame["callId"] != "c1" {
		t.Errorf("callId = %v, want c1", frame["callId"])
	}
}

func TestRouterDisconnectAfterReplacementKeepsCalls(t *testing.T) {
	router, registry, calls := newTestRouter(&fakeChat{})

	stale := registry.Register("u1", &fakeSocket{})
	registry.Register("u1", &fakeSocket{}) // replacement wins
	registry.Register("u2", &fakeSocket{})

	router.Route(context.Background(), model.InitiateCallFrame{
		FromUserID: "u1", TargetUserID: "u2", CallType: model.CallTypeAudio, CallID: "c1",
	})

	// The abandoned read loop disconnecting must not tear down the
	// replacement's registration or its calls.
	router.Disconnect(context.Background(), "u1", stale)

	if _, ok := registry.Lookup("u1"); !ok {
		t.Error("replacement connection should still be registered")
	}
	if calls.Len() != 1 {
		t.Errorf("calls.Len() = %d, want 1", calls.Len())
	}
}

func TestRouterDropsUndeliverableFrames(t *testing.T) {
	router, registry, _ := newTestRouter(&fakeChat{})
	registry.Register("u1", &fakeSocket{})

	// Relay toward a user who is not connected: dropped, no panic.
	router.Route(context.Background(), model.WebRTCSignalFrame{
		FromUserID:   "u1",
		TargetUserID: "ghost",
		Signal:       json.RawMessage(`{"type":"offer"}`),
		CallID:       "c1",
	})
	router.Route(context.Background(), model.EndCallFrame{
		FromUserID: "u1", TargetUserID: "ghost", CallID: "c1",
	})
}
