// internal/models/load.go
package models

type LoadStatus string

const (
	LoadStatusPending   LoadStatus = "Pending"
	LoadStatusMatched   LoadStatus = "Matched"
	LoadStatusInTransit LoadStatus = "In-transit"
	LoadStatusDelivered LoadStatus = "Delivered"
	LoadStatusCancelled LoadStatus = "Cancelled"
)

// Load is a read-only snapshot of a posted freight load.
type Load struct {
	ID                     string     `json:"id"`
	OwnerID                string     `json:"ownerId,omitempty"`
	Origin                 string     `json:"origin"`
	Destination            string     `json:"destination"`
	Cargo                  string     `json:"cargo,omitempty"`
	TrailerType            string     `json:"trailerType,omitempty"`
	RequiredQualifications []string   `json:"requiredQualifications,omitempty"`
	Status                 LoadStatus `json:"status"`
	Weight                 float64    `json:"weight"`
	Price                  float64    `json:"price"`
}

func (l *Load) IsPending() bool {
	return l.Status == LoadStatusPending
}
