package domain

import "time"

// ClientType distinguishes individual from corporate clients.
type ClientType string

const (
	ClientTypeIndividual ClientType = "INDIVIDUAL"
	ClientTypeCorporate  ClientType = "CORPORATE"
)

// Client is a party the firm represents.
type Client struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Type      ClientType `db:"type" json:"type"`
	Email     string     `db:"email" json:"email"`
	Phone     string     `db:"phone" json:"phone"`
	Address   string     `db:"address" json:"address"`
	Notes     string     `db:"notes" json:"notes"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
