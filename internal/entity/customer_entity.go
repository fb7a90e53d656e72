package entity

import "time"

type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "active"
	CustomerStatusBlocked CustomerStatus = "blocked"
)

// Customer mirrors the bank's customer directory. CustomerRef is the opaque
// identifier the channel apps send; it is the session key, not a UUID.
type Customer struct {
	CustomerRef string
	FullName    string
	Status      CustomerStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
