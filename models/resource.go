package models

import "time"

// Resource is a reference material published by a writer. Read side only has
// ordinary filtering; the view counter is the single mutable field on reads.
type Resource struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Subject     string    `bson:"subject" json:"subject"`
	Description string    `bson:"description" json:"description"`
	URL         string    `bson:"url" json:"url"`
	Type        string    `bson:"type" json:"type"`
	Tags        []string  `bson:"tags" json:"tags"`
	Views       int       `bson:"views" json:"views"`
	AuthorID    string    `bson:"authorId" json:"authorId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
