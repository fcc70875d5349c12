package models

import "time"

// Problem is a catalog entry teams can pick during a hackathon.
type Problem struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Track       string     `json:"track,omitempty" bson:"track,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty" bson:"release_date,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

func (p *Problem) Ref() ProblemRef {
	return ProblemRef{ID: p.ID, Title: p.Title, Track: p.Track}
}
