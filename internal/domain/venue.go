package domain

import "context"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Venue is a candidate venue from the external catalog. Read-only to this
// service; only approved, non-deleted venues participate in selection.
// swagger:model Venue
type Venue struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	City         string   `json:"city"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
	ReviewCount  int      `json:"review_count"`
	LikeCount    int      `json:"like_count"`
	PricePerHead *float64 `json:"price_per_head,omitempty"`
	Capacity     *int     `json:"capacity,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	Verification string   `json:"verification"`
}

// VerificationApproved marks a venue vetted by the catalog.
const VerificationApproved = "approved"

// VenueSearch is the filter for one candidate-selection query. All queries
// exclude deleted and non-approved venues, order by rating desc then review
// count desc, and cap the result. Radius filtering happens in the selector,
// not the repository.
type VenueSearch struct {
	Tags       []string
	Categories []string
	// MatchAny widens category/tag filters to a union instead of requiring
	// both when each is set.
	MatchAny bool
	Limit    int
}

// VenueRepository is the read-only query port over the venue catalog.
type VenueRepository interface {
	GetByID(ctx context.Context, id string) (*Venue, error)
	// Search returns approved, non-deleted venues matching the filter.
	Search(ctx context.Context, filter VenueSearch) ([]*Venue, error)
	// TopRated returns the highest-rated approved, non-deleted venues.
	TopRated(ctx context.Context, limit int) ([]*Venue, error)
}
