package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/pagination"
)

// ErrFaceNotLoaded is returned by Rename before Load succeeded.
var ErrFaceNotLoaded = errors.New("face details not loaded")

// FaceAlbum is the detail view of one face and the photos linked to it.
type FaceAlbum struct {
	api        API
	rep        *Reporter
	downloader Downloader
	gallery    *Gallery
	faceID     int64

	Photos *pagination.Cursor[models.Photo]

	mu   sync.Mutex
	face *models.Face

	loading     Guard
	renaming    Guard
	deleting    Guard
	deletingPic Guard
	downloading Guard
}

func NewFaceAlbum(api API, rep *Reporter, downloader Downloader, faceID int64, opts ...pagination.Option) *FaceAlbum {
	return &FaceAlbum{
		api:        api,
		rep:        rep,
		downloader: downloader,
		faceID:     faceID,
		Photos:     pagination.New("photo_by_face", photosByFacePage(api, faceID), opts...),
	}
}

func (a *FaceAlbum) FaceID() int64 {
	return a.faceID
}

// Face returns the loaded face details.
func (a *FaceAlbum) Face() (models.Face, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.face == nil {
		return models.Face{}, false
	}
	return *a.face, true
}

// Load fetches the face details and then the first page of its photos.
func (a *FaceAlbum) Load(ctx context.Context) error {
	err := Guarded(ctx, &a.loading, func(ctx context.Context) error {
		f, err := a.api.Face(ctx, a.faceID)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.face = f
		a.mu.Unlock()
		return nil
	})
	if err != nil {
		a.rep.Fail(ctx, err, "Failed to fetch face details")
		return err
	}

	a.Photos.Reset()
	_, err = a.LoadMore(ctx)
	return err
}

func (a *FaceAlbum) LoadMore(ctx context.Context) (bool, error) {
	ok, err := a.Photos.FetchNext(ctx)
	if err != nil {
		a.rep.Fail(ctx, err, "Failed to load photos")
	}
	return ok, err
}

// Rename sets the face name. The local copy changes only after the server
// accepted the new name. Renaming to the current name is a no-op.
func (a *FaceAlbum) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		err := &client.ValidationError{Field: "name", Message: "Name cannot be empty"}
		a.rep.Fail(ctx, err, "")
		return err
	}

	current, ok := a.Face()
	if !ok {
		a.rep.Fail(ctx, ErrFaceNotLoaded, "Failed to update name")
		return ErrFaceNotLoaded
	}
	if strings.TrimSpace(current.Name) == name {
		return nil
	}

	err := Guarded(ctx, &a.renaming, func(ctx context.Context) error {
		if err := a.api.UpdateFaceName(ctx, a.faceID, name); err != nil {
			return err
		}
		a.mu.Lock()
		a.face.Name = name
		a.mu.Unlock()

		if a.gallery != nil {
			a.gallery.Faces.Update(faceByID(a.faceID), func(f models.Face) models.Face {
				f.Name = name
				return f
			})
		}
		return nil
	})
	if err != nil {
		a.rep.Fail(ctx, err, "Failed to update name")
		return err
	}
	a.rep.Success("Name updated successfully!")
	return nil
}

// DeleteFace deletes the face on the server and drops it from the gallery.
func (a *FaceAlbum) DeleteFace(ctx context.Context) error {
	err := Guarded(ctx, &a.deleting, func(ctx context.Context) error {
		if err := a.api.DeleteFace(ctx, a.faceID); err != nil {
			return err
		}
		if a.gallery != nil {
			a.gallery.Faces.Remove(faceByID(a.faceID))
		}
		return nil
	})
	if err != nil {
		a.rep.Fail(ctx, err, "Failed to delete face")
		return err
	}
	a.rep.Success("Face deleted successfully!")
	return nil
}

// DeletePhoto deletes a photo shown in this album. The photo also leaves
// the gallery list.
func (a *FaceAlbum) DeletePhoto(ctx context.Context, id int64) error {
	err := Guarded(ctx, &a.deletingPic, func(ctx context.Context) error {
		if err := a.api.DeletePhoto(ctx, id); err != nil {
			return err
		}
		a.Photos.Remove(photoID(id))
		if a.gallery != nil {
			a.gallery.Photos.Remove(photoID(id))
		}
		return nil
	})
	a.rep.Fail(ctx, err, "Failed to delete image")
	return err
}

func (a *FaceAlbum) Download(ctx context.Context, id int64) (string, error) {
	photo, ok := a.Photos.Find(photoID(id))
	if !ok {
		err := errors.New("photo not loaded")
		a.rep.Fail(ctx, err, "Failed to download image")
		return "", err
	}
	return download(ctx, &a.downloading, a.downloader, a.rep, photo.URL)
}
