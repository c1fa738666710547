package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/datauri"
	"github.com/digkill/bizimage/internal/gemini"
	"github.com/digkill/bizimage/internal/models"
	"github.com/digkill/bizimage/internal/repository"
	"github.com/digkill/bizimage/internal/service"
	"github.com/digkill/bizimage/pkg/logger"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fakeGateway struct {
	images []gemini.Image
	err    error
	calls  int
}

func (f *fakeGateway) GenerateFromText(context.Context, string) ([]gemini.Image, error) {
	f.calls++
	return f.images, f.err
}

func (f *fakeGateway) GenerateFromImageAndText(context.Context, string, string, string) ([]gemini.Image, error) {
	f.calls++
	return f.images, f.err
}

type fixedStore struct {
	account models.Account
}

func (s *fixedStore) LoadAccount(context.Context) (models.Account, error) { return s.account, nil }
func (s *fixedStore) LoadHistory(context.Context) ([]models.GeneratedImage, error) {
	return []models.GeneratedImage{}, nil
}
func (s *fixedStore) SaveAccount(_ context.Context, a models.Account) error {
	s.account = a
	return nil
}
func (s *fixedStore) SaveHistory(context.Context, []models.GeneratedImage) error { return nil }

func newTestServer(t *testing.T, credits int, gateway *fakeGateway) *Server {
	t.Helper()
	store := &fixedStore{account: models.Account{ID: "u1", Email: "user@example.com", Credits: credits}}
	d, err := service.NewDashboard(context.Background(), logger.Discard(), store, gateway)
	require.NoError(t, err)
	return NewServer(Options{Addr: ":0", MaxUploadBytes: 1 << 20}, logger.Discard(), d)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestLandingAndLogin(t *testing.T) {
	s := newTestServer(t, 10, &fakeGateway{})

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BizImage.ai")

	rec = do(t, s, http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = do(t, s, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, 10, &fakeGateway{})

	rec := do(t, s, http.MethodGet, "/scenes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.SceneConfig](t, rec), 5)

	rec = do(t, s, http.MethodGet, "/packages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pkgs := decodeBody[[]map[string]any](t, rec)
	require.Len(t, pkgs, 3)
	assert.Equal(t, "29.99", pkgs[1]["price"])
	assert.Equal(t, true, pkgs[1]["popular"])
}

func TestGenerateText_Success(t *testing.T) {
	gw := &fakeGateway{images: []gemini.Image{{MIMEType: "image/png", Data: []byte{1}}, {MIMEType: "image/png", Data: []byte{2}}}}
	s := newTestServer(t, 10, gw)

	rec := do(t, s, http.MethodPost, "/generate/text", `{"prompt":"red shoe on grass"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decodeBody[service.GenerationResult](t, rec)
	assert.Equal(t, 9, res.Balance)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "red shoe on grass", res.Records[0].Prompt)

	rec = do(t, s, http.MethodGet, "/images?kind=text-to-image&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.GeneratedImage](t, rec), 1)
}

func TestGenerate_StatusMapping(t *testing.T) {
	t.Run("insufficient credits", func(t *testing.T) {
		gw := &fakeGateway{}
		s := newTestServer(t, 0, gw)

		rec := do(t, s, http.MethodPost, "/generate/scene", "")
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "credits", decodeBody[errorResponse](t, rec).Redirect)
		assert.Zero(t, gw.calls)

		snap := decodeBody[service.Snapshot](t, do(t, s, http.MethodGet, "/dashboard", ""))
		assert.Equal(t, models.TabCredits, snap.Tab)
	})

	t.Run("validation", func(t *testing.T) {
		s := newTestServer(t, 10, &fakeGateway{})
		rec := do(t, s, http.MethodPost, "/generate/text", `{"prompt":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(apperr.KindValidation), decodeBody[errorResponse](t, rec).Kind)
	})

	t.Run("remote failure", func(t *testing.T) {
		gw := &fakeGateway{err: apperr.NewRemoteFailure("Failed to generate images. Please try again.", errors.New("quota"))}
		s := newTestServer(t, 10, gw)
		rec := do(t, s, http.MethodPost, "/generate/text", `{"prompt":"p"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "quota")
	})

	t.Run("no images", func(t *testing.T) {
		s := newTestServer(t, 10, &fakeGateway{images: []gemini.Image{}})
		rec := do(t, s, http.MethodPost, "/generate/text", `{"prompt":"p"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, string(apperr.KindMalformedResponse), decodeBody[errorResponse](t, rec).Kind)
	})
}

func TestProductFlow(t *testing.T) {
	gw := &fakeGateway{images: []gemini.Image{{MIMEType: "image/png", Data: []byte{3}}}}
	s := newTestServer(t, 10, gw)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "product.png")
	require.NoError(t, err)
	_, err = part.Write(pngPixel)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/product/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[service.Snapshot](t, rec).HasProductImage)

	rec = do(t, s, http.MethodPut, "/product/scene", `{"scene":"dark","prompt":"gold accents"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/product/scene", `{"scene":"beach"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/generate/scene", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[service.GenerationResult](t, rec)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Product in Dark Premium: gold accents", res.Records[0].Prompt)
}

func TestProductImage_JSON(t *testing.T) {
	s := newTestServer(t, 10, &fakeGateway{})

	body, _ := json.Marshal(productImageRequest{DataURI: datauri.Encode("image/png", pngPixel)})
	rec := do(t, s, http.MethodPost, "/product/image", string(body))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/product/image", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataUri is required")
}

func TestPurchase(t *testing.T) {
	s := newTestServer(t, 9, &fakeGateway{})

	rec := do(t, s, http.MethodPost, "/credits/purchase", `{"package":"pro"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Confirm purchase of 100 credits?", decodeBody[errorResponse](t, rec).Confirm)

	rec = do(t, s, http.MethodPost, "/credits/purchase", `{"package":"pro","confirm":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[service.PurchaseResult](t, rec)
	assert.Equal(t, 109, res.Balance)
	assert.Equal(t, "Credits added successfully!", res.Notice)

	rec = do(t, s, http.MethodPost, "/credits/purchase", `{"package":"gold","confirm":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteImage(t *testing.T) {
	gw := &fakeGateway{images: []gemini.Image{{MIMEType: "image/png", Data: []byte{1}}}}
	s := newTestServer(t, 10, gw)

	res := decodeBody[service.GenerationResult](t, do(t, s, http.MethodPost, "/generate/text", `{"prompt":"p"}`))
	require.Len(t, res.Records, 1)
	id := res.Records[0].ID

	rec := do(t, s, http.MethodDelete, "/images/"+id, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot be undone")

	rec = do(t, s, http.MethodDelete, "/images/"+id+"?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[service.DeleteResult](t, rec).Removed)

	rec = do(t, s, http.MethodDelete, "/images/"+id+"?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[service.DeleteResult](t, rec).Removed)
}

func TestSelectTab(t *testing.T) {
	s := newTestServer(t, 10, &fakeGateway{})

	rec := do(t, s, http.MethodPut, "/dashboard/tab", `{"tab":"gallery"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TabGallery, decodeBody[service.Snapshot](t, rec).Tab)

	rec = do(t, s, http.MethodPut, "/dashboard/tab", `{"tab":"settings"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/dashboard/prompt", `{"prompt":"draft"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "draft", decodeBody[service.Snapshot](t, do(t, s, http.MethodGet, "/dashboard", "")).Forms.TextPrompt)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 10, &fakeGateway{})
	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bizimage_credit_balance")
}

func TestWithFileRepository(t *testing.T) {
	blobs, err := repository.NewFileBlobRepository(t.TempDir())
	require.NoError(t, err)
	d, err := service.NewDashboard(context.Background(), logger.Discard(), repository.NewSnapshotRepository(blobs, logger.Discard()), &fakeGateway{})
	require.NoError(t, err)
	s := NewServer(Options{}, logger.Discard(), d)

	snap := decodeBody[service.Snapshot](t, do(t, s, http.MethodGet, "/dashboard", ""))
	assert.Equal(t, models.DefaultAccount(), snap.Account)
	assert.NotNil(t, snap.History)
}
