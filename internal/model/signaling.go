package model

// MessageType tags a SignalingMessage's variant.
type MessageType string

const (
	MessageHello         MessageType = "hello"
	MessageHelloAck      MessageType = "hello_ack"
	MessageConfigUpdate  MessageType = "config_update"
	MessageKeepalive     MessageType = "keepalive"
	MessageStop          MessageType = "stop"
	MessageInputEvent    MessageType = "input_event"
)

// SignalingMessage is the tagged sum carried over the length-prefixed JSON
// control channel (spec §3, §6). Unknown fields are ignored by
// encoding/json on decode; missing optional fields take Go zero values,
// which matches the "missing optional fields default" requirement.
type SignalingMessage struct {
	Type MessageType `json:"type"`

	SessionID    string        `json:"sessionID,omitempty"`
	DeviceName   string        `json:"deviceName,omitempty"`
	Config       *StreamConfig `json:"config,omitempty"`
	Accepted     bool          `json:"accepted,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	TimestampMs  uint64        `json:"timestampMs,omitempty"`
	InputEvent   *InputEvent   `json:"inputEvent,omitempty"`
	PairingPIN   string        `json:"pairingPin,omitempty"`
	DisplayIndex uint8         `json:"displayIndex,omitempty"`
}

// NewHello builds a client→server hello message (spec §6 required fields).
func NewHello(sessionID, deviceName string, cfg StreamConfig, pin string, displayIndex uint8) SignalingMessage {
	return SignalingMessage{
		Type:         MessageHello,
		SessionID:    sessionID,
		DeviceName:   deviceName,
		Config:       &cfg,
		PairingPIN:   pin,
		DisplayIndex: displayIndex,
	}
}

// NewHelloAck builds a server→client hello_ack, carrying Reason only when
// rejecting.
func NewHelloAck(sessionID string, accepted bool, reason string) SignalingMessage {
	return SignalingMessage{
		Type:      MessageHelloAck,
		SessionID: sessionID,
		Accepted:  accepted,
		Reason:    reason,
	}
}

// NewConfigUpdate builds a client→server config_update.
func NewConfigUpdate(sessionID string, cfg StreamConfig) SignalingMessage {
	return SignalingMessage{
		Type:      MessageConfigUpdate,
		SessionID: sessionID,
		Config:    &cfg,
	}
}

// NewKeepalive builds a client→server keepalive.
func NewKeepalive(timestampMs uint64) SignalingMessage {
	return SignalingMessage{Type: MessageKeepalive, TimestampMs: timestampMs}
}

// NewStop builds a stop message, valid in either direction.
func NewStop(sessionID string) SignalingMessage {
	return SignalingMessage{Type: MessageStop, SessionID: sessionID}
}

// NewInputEventMessage builds a server→client input_event, clamping the
// event's coordinates into [0,1] first.
func NewInputEventMessage(ev InputEvent) SignalingMessage {
	ev.Clamp()
	return SignalingMessage{Type: MessageInputEvent, InputEvent: &ev}
}
