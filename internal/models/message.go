package models

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of stream message
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeAlert    MessageType = "alert"
	MessageTypeError    MessageType = "error"
)

// Message is the envelope for all stream messages
type Message struct {
	Type      MessageType     `json:"type"`
	PlantID   string          `json:"plant_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType MessageType, plantID string, payload interface{}) (*Message, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		PlantID:   plantID,
		Payload:   payloadJSON,
		Timestamp: time.Now(),
	}, nil
}

// ErrorMessage is the payload for MessageTypeError
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UnmarshalPayload unmarshals the message payload into the provided struct
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
