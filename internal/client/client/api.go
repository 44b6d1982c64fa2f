package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/models"
)

// Authenticator performs requests that need the bearer token, refreshing
// it when the server answers 401. The session manager implements it.
type Authenticator interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Envelope is the common part of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (e Envelope) check() error {
	if e.Success {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	return &RejectedError{Message: msg}
}

type VerifyOTPResponse struct {
	Envelope
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	NeedNameUpdate bool   `json:"need_name_update"`
}

type GoogleAuthResponse struct {
	Envelope
	AuthURL string `json:"auth_url"`
}

type FacesResponse struct {
	Envelope
	Faces       []models.Face `json:"faces"`
	CurrentPage int           `json:"current_page"`
	HasNext     *bool         `json:"has_next"`
}

type PhotosResponse struct {
	Envelope
	Photos      []models.Photo `json:"photos"`
	CurrentPage int            `json:"current_page"`
	HasNext     *bool          `json:"has_next"`
}

type FaceResponse struct {
	Envelope
	Face models.Face `json:"face"`
}

type LinkableFacesResponse struct {
	Envelope
	Faces   []models.LinkableFace `json:"faces"`
	HasNext *bool                 `json:"has_next"`
	Page    int                   `json:"page"`
}

type UploadStatusResponse struct {
	Envelope
	MaxPhotosReached bool `json:"max_photos_reached"`
}

// API is the typed client for the photo-gallery HTTP API. Calls that need a
// session go through auth; the login endpoints use the transport directly.
type API struct {
	transport *Transport
	auth      Authenticator
}

func NewAPI(transport *Transport, auth Authenticator) *API {
	return &API{transport: transport, auth: auth}
}

func (a *API) public(ctx context.Context, req *Request, out any) error {
	resp, err := a.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeChecked(resp, out)
}

func (a *API) private(ctx context.Context, req *Request, out any) error {
	resp, err := a.auth.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeChecked(resp, out)
}

type checker interface{ check() error }

func decodeChecked(resp *Response, out any) error {
	if err := resp.Err(); err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return err
	}
	if c, ok := out.(checker); ok {
		return c.check()
	}
	return nil
}

func (a *API) SendOTP(ctx context.Context, email string) error {
	var out Envelope
	return a.public(ctx, &Request{Method: http.MethodPost, Path: "/send_otp",
		JSON: map[string]string{"email": email}}, &out)
}

func (a *API) VerifyOTP(ctx context.Context, email, otp string) (*VerifyOTPResponse, error) {
	var out VerifyOTPResponse
	err := a.public(ctx, &Request{Method: http.MethodPost, Path: "/verify_otp",
		JSON: map[string]string{"email": email, "otp": otp}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GoogleAuthURL(ctx context.Context) (string, error) {
	var out GoogleAuthResponse
	err := a.public(ctx, &Request{Method: http.MethodGet, Path: "/google-auth",
		Query: url.Values{"auth_type": {"app"}}}, &out)
	if err != nil {
		return "", err
	}
	if out.AuthURL == "" {
		return "", &RejectedError{Message: "no auth url returned"}
	}
	return out.AuthURL, nil
}

func (a *API) ChangeName(ctx context.Context, name string) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/change-name",
		JSON: map[string]string{"name": name}}, &out)
}

func pageQuery(page int) url.Values {
	return url.Values{"page": {strconv.Itoa(page)}}
}

func (a *API) Faces(ctx context.Context, page int) (*FacesResponse, error) {
	var out FacesResponse
	if err := a.private(ctx, &Request{Method: http.MethodGet, Path: "/faces", Query: pageQuery(page)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Photos(ctx context.Context, page int) (*PhotosResponse, error) {
	var out PhotosResponse
	if err := a.private(ctx, &Request{Method: http.MethodGet, Path: "/photos", Query: pageQuery(page)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Face(ctx context.Context, faceID int64) (*models.Face, error) {
	var out FaceResponse
	if err := a.private(ctx, &Request{Method: http.MethodGet, Path: fmt.Sprintf("/face/%d", faceID)}, &out); err != nil {
		return nil, err
	}
	return &out.Face, nil
}

// PhotosByFace lists one page of photos linked to a face. The endpoint does
// not report current_page.
func (a *API) PhotosByFace(ctx context.Context, faceID int64, page int) (*PhotosResponse, error) {
	q := pageQuery(page)
	q.Set("face_id", strconv.FormatInt(faceID, 10))

	var out PhotosResponse
	if err := a.private(ctx, &Request{Method: http.MethodGet, Path: "/photo_by_face", Query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FacesForPhoto lists faces with their link state for a photo.
func (a *API) FacesForPhoto(ctx context.Context, photoID int64, page int) (*LinkableFacesResponse, error) {
	var out LinkableFacesResponse
	err := a.private(ctx, &Request{Method: http.MethodPost, Path: "/get_faces",
		JSON: map[string]any{"photo_id": photoID, "page": page}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LinkPhotoWithFace sets the link state and returns the server's message.
func (a *API) LinkPhotoWithFace(ctx context.Context, photoID, faceID int64, checked bool) (string, error) {
	var out Envelope
	err := a.private(ctx, &Request{Method: http.MethodPost, Path: "/link_unlink_photo_with_face",
		JSON: map[string]any{"photo_id": photoID, "face_id": faceID, "checked": checked}}, &out)
	return out.Message, err
}

func (a *API) DeletePhoto(ctx context.Context, photoID int64) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/delete_photo",
		JSON: map[string]any{"photo_id": photoID}}, &out)
}

func (a *API) DeleteFace(ctx context.Context, faceID int64) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/delete_face",
		JSON: map[string]any{"face_id": faceID}}, &out)
}

func (a *API) UpdateFaceName(ctx context.Context, faceID int64, name string) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/update-face-name",
		JSON: map[string]any{"face_id": faceID, "name": name}}, &out)
}

func (a *API) UploadStatus(ctx context.Context) (*UploadStatusResponse, error) {
	var out UploadStatusResponse
	if err := a.private(ctx, &Request{Method: http.MethodGet, Path: "/upload"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Upload(ctx context.Context, part *Multipart) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/upload", Form: part}, &out)
}

func (a *API) Logout(ctx context.Context, allDevices bool) error {
	var out Envelope
	return a.private(ctx, &Request{Method: http.MethodPost, Path: "/logout",
		JSON: map[string]bool{"allDevices": allDevices}}, &out)
}

// DeleteAccount returns the server's confirmation message.
func (a *API) DeleteAccount(ctx context.Context) (string, error) {
	var out Envelope
	err := a.private(ctx, &Request{Method: http.MethodPost, Path: "/delete_account"}, &out)
	return out.Message, err
}
