package models

import "time"

// Station is a charging location listed on the marketplace. Sessions and queue
// entries reference it by numeric id; the name is a display attribute only.
type Station struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Location    string    `db:"location" json:"location"`
	Chargers    int       `db:"chargers" json:"chargers"`
	PricePerKWh float64   `db:"price_per_kwh" json:"price_per_kwh"`
	GreenScore  int       `db:"green_score" json:"green_score"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	Approved    bool      `db:"approved" json:"approved"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
