package reconcile

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/notify"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

func ptr(b bool) *bool { return &b }

// fakeAPI records calls; each endpoint can be overridden by a func field.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	faces        map[int]*client.FacesResponse
	photos       map[int]*client.PhotosResponse
	face         *models.Face
	photosByFace map[int]*client.PhotosResponse
	linkable     map[int]*client.LinkableFacesResponse

	facesErr  error
	photosErr error
	faceErr   error
	deleteErr error
	renameErr error
	linkErr   error
	linkMsg   string

	// block, when set, holds mutations until closed
	block   chan struct{}
	entered chan string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		faces:        map[int]*client.FacesResponse{},
		photos:       map[int]*client.PhotosResponse{},
		photosByFace: map[int]*client.PhotosResponse{},
		linkable:     map[int]*client.LinkableFacesResponse{},
		entered:      make(chan string, 16),
	}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) wait(ctx context.Context, name string) error {
	if f.block == nil {
		return nil
	}
	f.entered <- name
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) Faces(_ context.Context, page int) (*client.FacesResponse, error) {
	f.record("faces")
	if f.facesErr != nil {
		return nil, f.facesErr
	}
	if r, ok := f.faces[page]; ok {
		return r, nil
	}
	return &client.FacesResponse{}, nil
}

func (f *fakeAPI) Photos(_ context.Context, page int) (*client.PhotosResponse, error) {
	f.record("photos")
	if f.photosErr != nil {
		return nil, f.photosErr
	}
	if r, ok := f.photos[page]; ok {
		return r, nil
	}
	return &client.PhotosResponse{}, nil
}

func (f *fakeAPI) Face(_ context.Context, _ int64) (*models.Face, error) {
	f.record("face")
	if f.faceErr != nil {
		return nil, f.faceErr
	}
	cp := *f.face
	return &cp, nil
}

func (f *fakeAPI) PhotosByFace(_ context.Context, _ int64, page int) (*client.PhotosResponse, error) {
	f.record("photo_by_face")
	if r, ok := f.photosByFace[page]; ok {
		return r, nil
	}
	return &client.PhotosResponse{}, nil
}

func (f *fakeAPI) FacesForPhoto(_ context.Context, _ int64, page int) (*client.LinkableFacesResponse, error) {
	f.record("get_faces")
	if r, ok := f.linkable[page]; ok {
		return r, nil
	}
	return &client.LinkableFacesResponse{}, nil
}

func (f *fakeAPI) LinkPhotoWithFace(ctx context.Context, _, _ int64, _ bool) (string, error) {
	f.record("link")
	if err := f.wait(ctx, "link"); err != nil {
		return "", err
	}
	return f.linkMsg, f.linkErr
}

func (f *fakeAPI) DeletePhoto(ctx context.Context, _ int64) error {
	f.record("delete_photo")
	if err := f.wait(ctx, "delete_photo"); err != nil {
		return err
	}
	return f.deleteErr
}

func (f *fakeAPI) DeleteFace(ctx context.Context, _ int64) error {
	f.record("delete_face")
	if err := f.wait(ctx, "delete_face"); err != nil {
		return err
	}
	return f.deleteErr
}

func (f *fakeAPI) UpdateFaceName(ctx context.Context, _ int64, _ string) error {
	f.record("rename")
	if err := f.wait(ctx, "rename"); err != nil {
		return err
	}
	return f.renameErr
}

type fakeDownloader struct {
	urls []string
	err  error
}

func (d *fakeDownloader) Download(_ context.Context, url string) (string, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return "", d.err
	}
	return "/tmp/photo.jpg", nil
}

type signOutSpy struct {
	mu    sync.Mutex
	calls int
}

func (s *signOutSpy) hook(context.Context, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func newReporter() (*Reporter, *notify.Recorder, *signOutSpy) {
	rec := &notify.Recorder{}
	spy := &signOutSpy{}
	return NewReporter(rec, logging.Nop(), spy.hook), rec, spy
}
