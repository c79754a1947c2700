package domain

// Location represents a bookable venue. The booking core treats locations
// as a read-only catalog; rows are owned by the location management system.
type Location struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	Capacity          int    `json:"capacity"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	Active            bool   `json:"active"`
}
