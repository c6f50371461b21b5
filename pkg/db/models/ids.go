package models

import "github.com/google/uuid"

// ensureID assigns a random primary key before insert so rows can be created
// by sqlite-backed tests as well as by Postgres.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
