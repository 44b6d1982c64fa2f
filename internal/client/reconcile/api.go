package reconcile

import (
	"context"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
	"github.com/dmitrijs2005/whatbmphotos/internal/client/pagination"
)

// API is the part of *client.API the view models use.
type API interface {
	Faces(ctx context.Context, page int) (*client.FacesResponse, error)
	Photos(ctx context.Context, page int) (*client.PhotosResponse, error)
	Face(ctx context.Context, faceID int64) (*models.Face, error)
	PhotosByFace(ctx context.Context, faceID int64, page int) (*client.PhotosResponse, error)
	FacesForPhoto(ctx context.Context, photoID int64, page int) (*client.LinkableFacesResponse, error)
	LinkPhotoWithFace(ctx context.Context, photoID, faceID int64, checked bool) (string, error)
	DeletePhoto(ctx context.Context, photoID int64) error
	DeleteFace(ctx context.Context, faceID int64) error
	UpdateFaceName(ctx context.Context, faceID int64, name string) error
}

// Downloader saves a remote photo locally and returns the file path.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

func facesPage(api API) pagination.FetchFunc[models.Face] {
	return func(ctx context.Context, page int) (pagination.Page[models.Face], error) {
		resp, err := api.Faces(ctx, page)
		if err != nil {
			return pagination.Page[models.Face]{}, err
		}
		return pagination.Page[models.Face]{Items: resp.Faces, CurrentPage: resp.CurrentPage, HasNext: resp.HasNext}, nil
	}
}

func photosPage(api API) pagination.FetchFunc[models.Photo] {
	return func(ctx context.Context, page int) (pagination.Page[models.Photo], error) {
		resp, err := api.Photos(ctx, page)
		if err != nil {
			return pagination.Page[models.Photo]{}, err
		}
		return pagination.Page[models.Photo]{Items: resp.Photos, CurrentPage: resp.CurrentPage, HasNext: resp.HasNext}, nil
	}
}

func photosByFacePage(api API, faceID int64) pagination.FetchFunc[models.Photo] {
	return func(ctx context.Context, page int) (pagination.Page[models.Photo], error) {
		resp, err := api.PhotosByFace(ctx, faceID, page)
		if err != nil {
			return pagination.Page[models.Photo]{}, err
		}
		return pagination.Page[models.Photo]{Items: resp.Photos, HasNext: resp.HasNext}, nil
	}
}

func linkableFacesPage(api API, photoID int64) pagination.FetchFunc[models.LinkableFace] {
	return func(ctx context.Context, page int) (pagination.Page[models.LinkableFace], error) {
		resp, err := api.FacesForPhoto(ctx, photoID, page)
		if err != nil {
			return pagination.Page[models.LinkableFace]{}, err
		}
		return pagination.Page[models.LinkableFace]{Items: resp.Faces, CurrentPage: resp.Page, HasNext: resp.HasNext}, nil
	}
}

func photoID(id int64) func(models.Photo) bool {
	return func(p models.Photo) bool { return p.ID == id }
}

func faceByID(id int64) func(models.Face) bool {
	return func(f models.Face) bool { return f.ID == id }
}
