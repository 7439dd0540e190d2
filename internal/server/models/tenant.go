package models

import "time"

// Tenant is the company an account may belong to.
type Tenant struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}
