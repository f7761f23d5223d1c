package id

import "github.com/google/uuid"

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Sortable generates a UUID v7 string. Values generated later compare greater.
// Falls back to a v4 UUID if the clock source fails.
func Sortable() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}
