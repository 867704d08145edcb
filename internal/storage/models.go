package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the plan file is already present.
	ErrExists = errors.New("plan file already exists")
	// ErrInvalidPlan is returned when a file lacks the plan info rows.
	ErrInvalidPlan = errors.New("not a valid seat plan")
	// ErrUnsupportedVersion is returned for plans written by a newer openseat.
	ErrUnsupportedVersion = errors.New("seat plan is from a newer version")
)

// CurrentSchemaVersion is the plan schema version written by Create.
const CurrentSchemaVersion = 1

// InfoKey identifies a row in the plan's info table.
type InfoKey int

const (
	InfoVersion InfoKey = 1
	InfoName    InfoKey = 2
)

// Floor is one level of the venue with its floor plan image.
// Image is left empty by Floors; use FloorImage to load it.
type Floor struct {
	ID    int64  `json:"id"`
	Level int    `json:"level"`
	Name  string `json:"name"`
	Image []byte `json:"-"`
}

// Seat is a rectangular seating area on a floor, in map coordinates.
type Seat struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	FloorID  int64   `json:"floor_id"`
	Lat1     float64 `json:"lat1"`
	Lat2     float64 `json:"lat2"`
	Lng1     float64 `json:"lng1"`
	Lng2     float64 `json:"lng2"`
}

type Participant struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	GuestAmount     int    `json:"guest_amount"`
	GuestsCheckedIn int    `json:"guests_checkedin"`
}

type Assignment struct {
	ParticipantID int64 `json:"participant_id"`
	SeatID        int64 `json:"seat_id"`
}
