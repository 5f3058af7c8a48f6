// internal/models/driver.go
package models

import "time"

type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilityOnTrip    Availability = "On-trip"
	AvailabilityOffDuty   Availability = "Off-duty"
)

// Driver is a read-only snapshot of a fleet driver and their equipment.
type Driver struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"ownerId,omitempty"`
	Name           string       `json:"name"`
	Location       string       `json:"location"`
	TrailerTypes   []string     `json:"trailerTypes,omitempty"`
	VehicleType    string       `json:"vehicleType,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	Rating         *float64     `json:"rating,omitempty"`
	Availability   Availability `json:"availability"`
	IsActive       bool         `json:"isActive"`

	CDLExpiry         *time.Time `json:"cdlExpiry,omitempty"`
	MedicalCardExpiry *time.Time `json:"medicalCardExpiry,omitempty"`
	InsuranceExpiry   *time.Time `json:"insuranceExpiry,omitempty"`
}

// Capabilities returns the trailer types the driver can haul. The trailerTypes
// list wins when present; the legacy vehicleType is used otherwise.
func (d *Driver) Capabilities() []string {
	if len(d.TrailerTypes) > 0 {
		return d.TrailerTypes
	}
	if d.VehicleType != "" {
		return []string{d.VehicleType}
	}
	return []string{}
}

// RatingValue reports the rating and whether one is on file.
func (d *Driver) RatingValue() (float64, bool) {
	if d.Rating == nil {
		return 0, false
	}
	return *d.Rating, true
}

func (d *Driver) IsAvailable() bool {
	return d.Availability == AvailabilityAvailable
}
