package models

import (
	"strings"
	"time"
)

const DefaultMaxSlots = 5

// Skill is a single declared competency with years of experience.
type Skill struct {
	Skill      string `bson:"skill" json:"skill"`
	Experience int    `bson:"experience" json:"experience"` // Years.
}

type Education struct {
	Qualification string `bson:"qualification" json:"qualification"`
	Place         string `bson:"place" json:"place"`
	StartYear     int    `bson:"startYear" json:"startYear"`
	EndYear       int    `bson:"endYear" json:"endYear"`
	Grade         string `bson:"grade,omitempty" json:"grade,omitempty"`
}

// Rating is a writer's running review average.
type Rating struct {
	Average float64 `bson:"average" json:"average"` // In [0, 5].
	Count   int     `bson:"count" json:"count"`
}

// Writer combines a profile with the capacity ledger. SlotsLeft and
// NextAvailable are mutated only through the ledger operations on the
// writer repository; profile fields are operator-managed.
type Writer struct {
	ID           string      `bson:"id" json:"id"`
	FullName     string      `bson:"fullName" json:"fullName"`
	Email        string      `bson:"email" json:"email"`
	ProfileImage string      `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Skills       []Skill     `bson:"skills" json:"skills"`
	FamiliarWith []string    `bson:"familiarWith" json:"familiarWith"`
	Education    []Education `bson:"education" json:"education"`
	Bio          string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Rating       Rating      `bson:"rating" json:"rating"`

	// Capacity ledger. Invariant: 0 <= SlotsLeft <= MaxSlots.
	// NextAvailable holds the deadline of whichever order exhausted the
	// last slot, or nil while capacity remains.
	MaxSlots      int        `bson:"maxSlots" json:"maxSlots"`
	SlotsLeft     int        `bson:"slotsLeft" json:"slotsLeft"`
	NextAvailable *time.Time `bson:"nextAvailable" json:"nextAvailable"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EligibleFor reports whether the ledger permits taking an order with the
// given deadline: a free slot, and NextAvailable unset or not after the
// deadline.
func (w *Writer) EligibleFor(deadline time.Time) bool {
	if w.SlotsLeft <= 0 {
		return false
	}
	if w.NextAvailable != nil && w.NextAvailable.After(deadline) {
		return false
	}
	return true
}

// MatchesSubject reports whether the subject case-insensitively matches any
// declared skill name or familiarity entry.
func (w *Writer) MatchesSubject(subject string) bool {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return true
	}
	for _, s := range w.Skills {
		if strings.Contains(strings.ToLower(s.Skill), subject) {
			return true
		}
	}
	for _, f := range w.FamiliarWith {
		if strings.Contains(strings.ToLower(f), subject) {
			return true
		}
	}
	return false
}
