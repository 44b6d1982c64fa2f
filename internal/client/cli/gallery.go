package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/reconcile"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/services"
)

// errNoLinker is returned by Toggle before a photo was opened with Link.
var errNoLinker = errors.New("no photo selected, use link <photo id> first")

// Home reloads faces and photos from the first page and prints them.
func (a *App) Home(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	err := a.gallery.Refresh(ctx)
	a.printFaces(a.gallery.Faces.Items())
	a.printPhotos(a.gallery.Photos.Items())
	return err
}

// More fetches the next page of "faces" or "photos".
func (a *App) More(ctx context.Context, list string) error {
	if !a.requireLogin() {
		return nil
	}

	var (
		fetched bool
		err     error
	)
	switch list {
	case "faces":
		fetched, err = a.gallery.LoadMoreFaces(ctx)
		a.printFaces(a.gallery.Faces.Items())
	case "photos":
		fetched, err = a.gallery.LoadMorePhotos(ctx)
		a.printPhotos(a.gallery.Photos.Items())
	default:
		return fmt.Errorf("unknown list %q", list)
	}
	if err == nil && !fetched {
		a.printf("No more %s.\n", list)
	}
	return err
}

// Face opens the album of one face.
func (a *App) Face(ctx context.Context, faceID int64) error {
	if !a.requireLogin() {
		return nil
	}
	album, err := a.openAlbum(ctx, faceID, true)
	if err != nil {
		return err
	}
	if f, ok := album.Face(); ok {
		a.printf("%s (%d photos)\n", f.DisplayName(), f.PhotoCount)
	}
	a.printPhotos(album.Photos.Items())
	return nil
}

// openAlbum returns the open album of faceID, loading a new one when a
// different face is open or reload is set.
func (a *App) openAlbum(ctx context.Context, faceID int64, reload bool) (*reconcile.FaceAlbum, error) {
	a.mu.Lock()
	album := a.album
	a.mu.Unlock()

	if album != nil && album.FaceID() == faceID && !reload {
		if _, ok := album.Face(); ok {
			return album, nil
		}
	}

	album = a.gallery.Album(faceID)
	if err := album.Load(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.album = album
	a.mu.Unlock()
	return album, nil
}

func (a *App) currentAlbum() *reconcile.FaceAlbum {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.album
}

func (a *App) Rename(ctx context.Context, faceID int64, name string) error {
	if !a.requireLogin() {
		return nil
	}
	album, err := a.openAlbum(ctx, faceID, false)
	if err != nil {
		return err
	}
	return album.Rename(ctx, name)
}

func (a *App) DeleteFace(ctx context.Context, faceID int64) error {
	if !a.requireLogin() {
		return nil
	}
	album, err := a.openAlbum(ctx, faceID, false)
	if err != nil {
		return err
	}
	if err := album.DeleteFace(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	if a.album == album {
		a.album = nil
	}
	a.mu.Unlock()
	return nil
}

// DeletePhoto deletes a photo from the open album when it shows it, and
// from the home view otherwise.
func (a *App) DeletePhoto(ctx context.Context, photoID int64) error {
	if !a.requireLogin() {
		return nil
	}
	if album := a.currentAlbum(); album != nil {
		if _, ok := album.Photos.Find(func(p models.Photo) bool { return p.ID == photoID }); ok {
			return album.DeletePhoto(ctx, photoID)
		}
	}
	return a.gallery.DeletePhoto(ctx, photoID)
}

func (a *App) Download(ctx context.Context, photoID int64) error {
	if !a.requireLogin() {
		return nil
	}
	var (
		path string
		err  error
	)
	album := a.currentAlbum()
	if _, inGallery := a.gallery.PhotoByID(photoID); !inGallery && album != nil {
		path, err = album.Download(ctx, photoID)
	} else {
		path, err = a.gallery.Download(ctx, photoID)
	}
	if err != nil {
		return err
	}
	a.printf("%s\n", path)
	return nil
}

// Link opens the face list of a photo with the current link flags.
func (a *App) Link(ctx context.Context, photoID int64) error {
	if !a.requireLogin() {
		return nil
	}
	linker := a.gallery.Linker(photoID)
	if err := linker.Load(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.linker = linker
	a.mu.Unlock()
	a.printLinkable(linker.Faces.Items())
	return nil
}

// Toggle flips the link between the photo opened with Link and a face.
func (a *App) Toggle(ctx context.Context, faceID int64) error {
	if !a.requireLogin() {
		return nil
	}
	a.mu.Lock()
	linker := a.linker
	a.mu.Unlock()
	if linker == nil {
		a.rep.Fail(ctx, errNoLinker, errNoLinker.Error())
		return errNoLinker
	}

	linked, ok := linker.Linked(faceID)
	if !ok {
		err := fmt.Errorf("face %d is not listed for photo %d", faceID, linker.PhotoID())
		a.rep.Fail(ctx, err, err.Error())
		return err
	}
	err := linker.ToggleLink(ctx, faceID, !linked)
	a.printLinkable(linker.Faces.Items())
	return err
}

// Upload sends the given files and reports each one.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if !a.requireLogin() {
		return nil
	}
	results, err := a.photoService.Upload(ctx, paths)
	for _, r := range results {
		if r.Err != nil {
			a.rep.Fail(ctx, r.Err, fmt.Sprintf("%s: %s", r.Path, a.tr.T("upload.failed")))
			continue
		}
		a.rep.Success(fmt.Sprintf("%s: %s", r.Path, a.tr.T("upload.success")))
	}
	if err != nil {
		if errors.Is(err, services.ErrUploadLimitReached) {
			a.rep.Fail(ctx, err, a.tr.T("upload.databaseFull"))
			return err
		}
		if len(results) == 0 {
			a.rep.Fail(ctx, err, a.tr.T("upload.failed"))
		}
		return err
	}
	if len(results) > 0 {
		_ = a.Home(ctx)
	}
	return nil
}

func (a *App) printFaces(faces []models.Face) {
	a.printf("Faces (%d):\n", len(faces))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, f := range faces {
		fmt.Fprintf(tw, "  %d\t%s\t%d photos\n", f.ID, f.DisplayName(), f.PhotoCount)
	}
	_ = tw.Flush()
}

func (a *App) printPhotos(photos []models.Photo) {
	a.printf("Photos (%d):\n", len(photos))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, p := range photos {
		fmt.Fprintf(tw, "  %d\t%s\n", p.ID, p.URL)
	}
	_ = tw.Flush()
}

func (a *App) printLinkable(faces []models.LinkableFace) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, f := range faces {
		mark := " "
		if f.Linked {
			mark = "x"
		}
		fmt.Fprintf(tw, "  [%s]\t%d\t%s\n", mark, f.ID, f.DisplayName())
	}
	_ = tw.Flush()
}
