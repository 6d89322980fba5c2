package models

import "time"

// Group is a named collection of users. Names are unique. System marks
// groups created by directory synchronization; such groups are not manually
// curated.
type Group struct {
	ID        int64
	Name      string
	System    bool
	CreatedAt time.Time
}
