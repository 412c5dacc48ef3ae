// Package profile stores the candidate's profile and project portfolio.
//
// The service represents exactly one candidate, so the profiles table is
// constrained to a single row; UpsertProfile always writes that row.
package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the candidate's profile as shown to visitors and indexed
// for retrieval.
type Profile struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Bio        string    `json:"bio"`
	Skills     []string  `json:"skills"`
	Experience string    `json:"experience"`
	Interests  string    `json:"interests"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Project is a single portfolio entry. Position controls display order.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies []string  `json:"technologies"`
	URL          string    `json:"url"`
	Position     int       `json:"position"`
	UpdatedAt    time.Time `json:"updated_at"`
}
