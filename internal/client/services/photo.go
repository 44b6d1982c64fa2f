package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/filex"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
	"github.com/dmitrijs2005/whatbmphotos/internal/netx"
)

// Upload limits.
const (
	MaxUploadSizeMB = 20
	MaxUploadSize   = MaxUploadSizeMB << 20
	MaxUploadBatch  = 50
	UploadFormField = "file"
)

// AllowedContentTypes are the accepted upload types.
var AllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// ErrUploadLimitReached means the account cannot take more photos.
var ErrUploadLimitReached = errors.New("photo limit reached")

type PhotoAPI interface {
	UploadStatus(ctx context.Context) (*client.UploadStatusResponse, error)
	Upload(ctx context.Context, part *client.Multipart) error
}

// UploadResult is the outcome for one file of a batch.
type UploadResult struct {
	Path string
	Err  error
}

// PhotoService uploads local files and downloads remote photos.
type PhotoService interface {
	// CanUpload asks the server whether the account has room for more photos.
	CanUpload(ctx context.Context) (bool, error)
	// Prepare validates a local file and returns the multipart part for it.
	Prepare(path string) (*client.Multipart, error)
	// Upload sends files one after another. Invalid files are reported in
	// their result and skipped.
	Upload(ctx context.Context, paths []string) ([]UploadResult, error)
	// Download saves url into the download directory and returns the path.
	Download(ctx context.Context, url string) (string, error)
}

type photoService struct {
	api         PhotoAPI
	http        *http.Client
	downloadDir string
	tr          Translator
	log         logging.Logger
	now         func() time.Time
}

func NewPhotoService(api PhotoAPI, httpClient *http.Client, downloadDir string, tr Translator, log logging.Logger) PhotoService {
	return &photoService{
		api:         api,
		http:        httpClient,
		downloadDir: downloadDir,
		tr:          tr,
		log:         log.With("component", "photos"),
		now:         time.Now,
	}
}

func (s *photoService) CanUpload(ctx context.Context) (bool, error) {
	st, err := s.api.UploadStatus(ctx)
	if err != nil {
		return false, err
	}
	return !st.MaxPhotosReached, nil
}

// sniff reports the content type of the file at path from its first bytes,
// falling back to the extension.
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ct := http.DetectContentType(head[:n])
	if ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			ct = byExt
		}
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return ct, nil
}

func (s *photoService) Prepare(path string) (*client.Multipart, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if st.Size() > MaxUploadSize {
		return nil, &client.ValidationError{Field: "file",
			Message: s.tr.Tf("upload.tooLarge", MaxUploadSizeMB)}
	}

	ct, err := sniff(path)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(AllowedContentTypes, ct) {
		return nil, &client.ValidationError{Field: "file", Message: s.tr.T("upload.badType")}
	}

	return &client.Multipart{
		Field:       UploadFormField,
		FileName:    filepath.Base(path),
		ContentType: ct,
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func (s *photoService) Upload(ctx context.Context, paths []string) ([]UploadResult, error) {
	if len(paths) > MaxUploadBatch {
		return nil, &client.ValidationError{Field: "files",
			Message: s.tr.Tf("upload.tooMany", MaxUploadBatch)}
	}

	ok, err := s.CanUpload(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadLimitReached, s.tr.T("upload.databaseFull"))
	}

	results := make([]UploadResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		part, err := s.Prepare(p)
		if err == nil {
			err = s.api.Upload(ctx, part)
		}
		if err != nil {
			s.log.Warn(ctx, "upload failed", "file", p, "error", err)
			if errors.Is(err, client.ErrUnauthorized) {
				results = append(results, UploadResult{Path: p, Err: err})
				return results, err
			}
		} else {
			s.log.Info(ctx, "uploaded", "file", p)
		}
		results = append(results, UploadResult{Path: p, Err: err})
	}
	return results, nil
}

func (s *photoService) Download(ctx context.Context, url string) (string, error) {
	dir, err := filex.EnsureDir(s.downloadDir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("photo_%d.jpg", s.now().UnixNano()))

	n, err := netx.DownloadToFile(ctx, s.http, url, path)
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "downloaded", "path", path, "bytes", n)
	return path, nil
}
