package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when id is still empty.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
