package model

import "time"

// Conversion is the history record kept for every processed deck.
// It holds metadata only; the story itself is not persisted.
type Conversion struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Title         string    `json:"title"`
	Model         string    `json:"model"`
	AIUnavailable bool      `json:"aiUnavailable"`
	Slides        int       `json:"slides"`
	Chapters      int       `json:"chapters"`
	ArchivePath   string    `json:"archivePath"`
	CreatedAt     time.Time `json:"createdAt"`
}
