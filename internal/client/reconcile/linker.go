package reconcile

import (
	"context"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/pagination"
)

// FaceLinker lists the faces a photo can be linked to and toggles links.
// One toggle runs at a time across the whole linker; a toggle requested
// meanwhile is dropped.
type FaceLinker struct {
	api     API
	rep     *Reporter
	photoID int64

	Faces *pagination.Cursor[models.LinkableFace]

	toggling Guard
}

func NewFaceLinker(api API, rep *Reporter, photoID int64, opts ...pagination.Option) *FaceLinker {
	return &FaceLinker{
		api:     api,
		rep:     rep,
		photoID: photoID,
		Faces:   pagination.New("get_faces", linkableFacesPage(api, photoID), opts...),
	}
}

func (l *FaceLinker) PhotoID() int64 {
	return l.photoID
}

// Load resets the list and fetches its first page.
func (l *FaceLinker) Load(ctx context.Context) error {
	l.Faces.Reset()
	_, err := l.LoadMore(ctx)
	return err
}

func (l *FaceLinker) LoadMore(ctx context.Context) (bool, error) {
	ok, err := l.Faces.FetchNext(ctx)
	if err != nil {
		l.rep.Fail(ctx, err, "Failed to load faces")
	}
	return ok, err
}

// ToggleLink flips the local link flag to desired at once, then asks the
// server. On failure the flag goes back to its previous value.
func (l *FaceLinker) ToggleLink(ctx context.Context, faceID int64, desired bool) error {
	match := func(f models.LinkableFace) bool { return f.ID == faceID }

	var (
		prev    bool
		message string
	)
	err := Optimistic(ctx, &l.toggling,
		func() {
			l.Faces.Update(match, func(f models.LinkableFace) models.LinkableFace {
				prev = f.Linked
				f.Linked = desired
				return f
			})
		},
		func(ctx context.Context) error {
			var err error
			message, err = l.api.LinkPhotoWithFace(ctx, l.photoID, faceID, desired)
			return err
		},
		func() {
			l.Faces.Update(match, func(f models.LinkableFace) models.LinkableFace {
				f.Linked = prev
				return f
			})
		},
	)
	if err != nil {
		l.rep.Fail(ctx, err, "Failed to link face")
		return err
	}

	if message == "" {
		message = "Face updated successfully!"
	}
	l.rep.Success(message)
	return nil
}

// Linked reports the local link state of a face.
func (l *FaceLinker) Linked(faceID int64) (bool, bool) {
	f, ok := l.Faces.Find(func(f models.LinkableFace) bool { return f.ID == faceID })
	return f.Linked, ok
}
