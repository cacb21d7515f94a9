package models

import "time"

// CustomRating is an optional named 1-5 rating attached to a review.
type CustomRating struct {
	Name   string `bson:"name" json:"name"`
	Rating int    `bson:"rating" json:"rating"`
}

// Review is a user's one-time rating of a completed order. Reviews are
// immutable once created; there is no update or delete path.
type Review struct {
	ID string `bson:"id" json:"id"`

	// The four mandatory 1-5 ratings.
	InstructionAdherence int `bson:"instructionAdherence" json:"instructionAdherence"`
	Grammar              int `bson:"grammar" json:"grammar"`
	ResponseSpeed        int `bson:"responseSpeed" json:"responseSpeed"`
	Formatting           int `bson:"formatting" json:"formatting"`

	Other   []CustomRating `bson:"other,omitempty" json:"other,omitempty"`
	Comment string         `bson:"comment,omitempty" json:"comment,omitempty"`

	WriterID string `bson:"writerId" json:"writerId"`
	UserID   string `bson:"userId" json:"userId"`
	OrderID  string `bson:"orderId" json:"orderId"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Mean is the review's own unweighted arithmetic mean across the four
// mandatory ratings and any custom ratings.
func (r *Review) Mean() float64 {
	sum := r.InstructionAdherence + r.Grammar + r.ResponseSpeed + r.Formatting
	count := 4
	for _, o := range r.Other {
		sum += o.Rating
		count++
	}
	return float64(sum) / float64(count)
}
