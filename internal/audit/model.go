package audit

import (
	"encoding/json"
	"time"
)

// Kind tags which entity table an audit row belongs to.
type Kind string

const (
	KindOrder    Kind = "order"
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindCategory Kind = "category"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindOrder, KindProduct, KindCustomer, KindCategory:
		return k, true
	}
	return "", false
}

type Event string

const (
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
)

// Subject identifies the audited entity without any reference to its Go type.
type Subject struct {
	Kind Kind
	ID   int64
}

type Entry struct {
	ID        int64           `json:"id"`
	TeamID    int64           `json:"team_id"`
	UserID    *int64          `json:"user_id,omitempty"`
	Kind      Kind            `json:"entity"`
	EntityID  int64           `json:"entity_id"`
	Event     Event           `json:"event"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
