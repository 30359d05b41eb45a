package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// GradeEntry binds one homework identifier to its grade. A nil grade means
// the user is enrolled in the homework but has not been graded yet.
type GradeEntry struct {
	Homework string   `json:"homework"`
	Grade    *float64 `json:"grade"`
}

// User represents an account that can be graded. The ledger is a single
// ordered sequence of homework/grade pairs so the homework identifier and
// its grade can never drift out of alignment.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Role      string         `gorm:"size:16;not null" json:"role"`
	Ledger    datatypes.JSON `gorm:"type:json" json:"ledger"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// GradeEntries decodes the ledger column. An empty column yields an empty slice.
func (u User) GradeEntries() ([]GradeEntry, error) {
	if len(u.Ledger) == 0 {
		return []GradeEntry{}, nil
	}

	var entries []GradeEntry
	if err := json.Unmarshal(u.Ledger, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []GradeEntry{}
	}

	return entries, nil
}

// SetGradeEntries encodes the ledger column from the given entries.
func (u *User) SetGradeEntries(entries []GradeEntry) error {
	if entries == nil {
		entries = []GradeEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	u.Ledger = datatypes.JSON(data)

	return nil
}

// GradeFor returns the grade recorded for the homework, if any.
func (u User) GradeFor(homework string) (*float64, bool) {
	entries, err := u.GradeEntries()
	if err != nil {
		return nil, false
	}
	for _, entry := range entries {
		if entry.Homework == homework {
			return entry.Grade, true
		}
	}

	return nil, false
}
