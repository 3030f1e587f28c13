// internal/model/customer.go
package model

import "time"

type Customer struct {
	ID         int       `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	ExternalID string    `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
