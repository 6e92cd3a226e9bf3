// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Email is stored lower-cased.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	CreatedAt    time.Time
}
