package models

import "time"

// ClientKind discriminates who an appointment is for.
type ClientKind string

const (
	ClientBaby   ClientKind = "BABY"
	ClientParent ClientKind = "PARENT"
)

// ClientRef identifies the client of an appointment: exactly one of a baby
// or a parent-as-client. Replaces the old "babyId xor parentId" field pair.
type ClientRef struct {
	Kind ClientKind `bson:"kind" json:"kind"`
	ID   string     `bson:"id" json:"id"`
}

func BabyRef(id string) ClientRef   { return ClientRef{Kind: ClientBaby, ID: id} }
func ParentRef(id string) ClientRef { return ClientRef{Kind: ClientParent, ID: id} }

func (c ClientRef) IsZero() bool { return c.ID == "" }

// Baby is a child client. Medical and intake details live outside this core.
type Baby struct {
	ID        string    `bson:"id" json:"id"`
	ParentID  string    `bson:"parent_id" json:"parent_id"`
	Name      string    `bson:"name" json:"name"`
	BirthDate string    `bson:"birth_date,omitempty" json:"birth_date,omitempty"` // "YYYY-MM-DD"
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Parent is the responsible adult, and may also be a client themselves.
// NoShowCount tracks consecutive no-shows; at three the RequiresPrepayment
// flag becomes sticky and intake must force PENDING_PAYMENT on the next
// booking.
type Parent struct {
	ID                 string    `bson:"id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	Phone              string    `bson:"phone,omitempty" json:"phone,omitempty"`
	NoShowCount        int       `bson:"no_show_count" json:"no_show_count"`
	RequiresPrepayment bool      `bson:"requires_prepayment" json:"requires_prepayment"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}
