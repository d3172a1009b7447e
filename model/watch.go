package model

import "time"

// WatchEntry is a book a student asked to be notified about.
// The tuple (StudentID, Barcode, Title, BookID, Author) is unique.
type WatchEntry struct {
	ID        int64     `json:"-"`
	StudentID StudentID `json:"-"`
	Barcode   string    `json:"bid"`
	Title     string    `json:"book"`
	BookID    string    `json:"id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchView is a watch entry decorated with live availability
type WatchView struct {
	WatchEntry
	Available bool `json:"-"`
}

// Avbl renders availability the way the mobile clients expect it
func (v WatchView) Avbl() string {
	if v.Available {
		return "y"
	}
	return "n"
}
