package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageVersion is bumped when the payload changes incompatibly.
const MessageVersion = 1

const (
	EntityTransaction = "transaction"
	EntityGoal        = "goal"
	EntityReminder    = "reminder"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage announces that one record of a user changed. It carries ids
// only; consumers read the current state from storage.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	UserID    string    `json:"user_id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(userID, entity, entityID, op string) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Version:   MessageVersion,
		UserID:    userID,
		Entity:    entity,
		EntityID:  entityID,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeMessage) Validate() error {
	switch {
	case m.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidMessage)
	case m.Entity != EntityTransaction && m.Entity != EntityGoal && m.Entity != EntityReminder:
		return fmt.Errorf("%w: unknown entity %q", ErrInvalidMessage, m.Entity)
	case m.Op != OpUpsert && m.Op != OpDelete:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, m.Op)
	case m.Entity != EntityGoal && m.EntityID == "":
		return fmt.Errorf("%w: missing entity id", ErrInvalidMessage)
	case m.Version > MessageVersion:
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidMessage, m.Version)
	}
	return nil
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
