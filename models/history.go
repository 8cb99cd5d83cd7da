package models

import "time"

// SearchRecord is one completed comparison persisted for reporting.
type SearchRecord struct {
	ID           string    `bson:"id" json:"id"`
	Origin       string    `bson:"origin" json:"origin"`
	Destination  string    `bson:"destination" json:"destination"`
	Date         string    `bson:"date" json:"date"`
	Passengers   int       `bson:"passengers" json:"passengers"`
	CabinClass   string    `bson:"cabinClass" json:"cabinClass"`
	TotalResults int       `bson:"totalResults" json:"totalResults"`
	BestCPP      float64   `bson:"bestCpp" json:"bestCpp"`
	SearchedAt   time.Time `bson:"searchedAt" json:"searchedAt"`
}
