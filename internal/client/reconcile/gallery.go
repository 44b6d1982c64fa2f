package reconcile

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/pagination"
)

// Gallery is the home view: all faces and all photos of the user.
type Gallery struct {
	api        API
	rep        *Reporter
	downloader Downloader
	opts       []pagination.Option

	Faces  *pagination.Cursor[models.Face]
	Photos *pagination.Cursor[models.Photo]

	deleting    Guard
	downloading Guard
}

func NewGallery(api API, rep *Reporter, downloader Downloader, opts ...pagination.Option) *Gallery {
	return &Gallery{
		api:        api,
		rep:        rep,
		downloader: downloader,
		opts:       opts,
		Faces:      pagination.New("faces", facesPage(api), opts...),
		Photos:     pagination.New("photos", photosPage(api), opts...),
	}
}

// Refresh reloads both lists from page one. It returns once both fetches
// have finished.
func (g *Gallery) Refresh(ctx context.Context) error {
	err := pagination.Refresh(ctx, g.Faces, g.Photos)
	if err != nil {
		g.rep.failAll(ctx, err, func(e error) string {
			var fe *pagination.FetchError
			if errors.As(e, &fe) && fe.Resource == g.Faces.Name() {
				return "Failed to load faces"
			}
			return "Failed to load photos"
		})
	}
	return err
}

func (g *Gallery) LoadMoreFaces(ctx context.Context) (bool, error) {
	ok, err := g.Faces.FetchNext(ctx)
	if err != nil {
		g.rep.Fail(ctx, err, "Failed to load faces")
	}
	return ok, err
}

func (g *Gallery) LoadMorePhotos(ctx context.Context) (bool, error) {
	ok, err := g.Photos.FetchNext(ctx)
	if err != nil {
		g.rep.Fail(ctx, err, "Failed to load photos")
	}
	return ok, err
}

// DeletePhoto deletes a photo on the server and then drops it from the
// local list.
func (g *Gallery) DeletePhoto(ctx context.Context, id int64) error {
	err := Guarded(ctx, &g.deleting, func(ctx context.Context) error {
		if err := g.api.DeletePhoto(ctx, id); err != nil {
			return err
		}
		g.Photos.Remove(photoID(id))
		return nil
	})
	g.rep.Fail(ctx, err, "Failed to delete image")
	return err
}

// Download saves the photo with the given id from the loaded list.
func (g *Gallery) Download(ctx context.Context, id int64) (string, error) {
	photo, ok := g.Photos.Find(photoID(id))
	if !ok {
		err := errors.New("photo not loaded")
		g.rep.Fail(ctx, err, "Failed to download image")
		return "", err
	}
	return download(ctx, &g.downloading, g.downloader, g.rep, photo.URL)
}

func download(ctx context.Context, guard *Guard, d Downloader, rep *Reporter, url string) (string, error) {
	var path string
	err := Guarded(ctx, guard, func(ctx context.Context) error {
		var err error
		path, err = d.Download(ctx, url)
		return err
	})
	if err != nil {
		rep.Fail(ctx, err, "Failed to download image")
		return "", err
	}
	rep.Success("Downloaded to gallery!")
	return path, nil
}

// Album opens the detail view of one face. Changes made there are mirrored
// into this gallery.
func (g *Gallery) Album(faceID int64) *FaceAlbum {
	a := NewFaceAlbum(g.api, g.rep, g.downloader, faceID, g.opts...)
	a.gallery = g
	return a
}

// Linker opens the face-linking view of one photo.
func (g *Gallery) Linker(photoID int64) *FaceLinker {
	return NewFaceLinker(g.api, g.rep, photoID, g.opts...)
}

// PhotoByID looks a photo up in the loaded list.
func (g *Gallery) PhotoByID(id int64) (models.Photo, bool) {
	return g.Photos.Find(photoID(id))
}
