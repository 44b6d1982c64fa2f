// Package models defines the gallery entities returned by the photo API.
package models

import "strings"

// UntitledFace is shown for faces the user has not named yet.
const UntitledFace = "Untitled"

// Face is a server-side cluster of photos containing the same detected face.
type Face struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"face_url"`
	PhotoCount   int    `json:"face_count"`
}

// DisplayName returns the face name, or UntitledFace when it is blank.
func (f Face) DisplayName() string {
	if strings.TrimSpace(f.Name) == "" {
		return UntitledFace
	}
	return f.Name
}

// LinkableFace is a face listed for a particular photo together with
// whether the photo is currently linked to it.
type LinkableFace struct {
	Face
	Linked bool `json:"linked"`
}

// Photo is a single uploaded photo.
type Photo struct {
	ID  int64  `json:"id"`
	URL string `json:"photo_url"`
}
