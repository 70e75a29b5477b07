package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/resilience"
)

func TestUpload_Validate(t *testing.T) {
	ok := Upload{Filename: "a.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")}
	assert.NoError(t, ok.Validate(100))
	assert.Equal(t, "png", ok.Format())

	tooBig := ok
	tooBig.Size = 101
	assert.ErrorIs(t, tooBig.Validate(100), domain.ErrInvalidInput)

	badType := ok
	badType.ContentType = "text/html"
	assert.ErrorIs(t, badType.Validate(100), domain.ErrInvalidInput)

	empty := ok
	empty.Body = nil
	assert.ErrorIs(t, empty.Validate(100), domain.ErrInvalidInput)
}

func TestMockStore_RoundTrip(t *testing.T) {
	store, err := NewMockStore("http://localhost:8080/", t.TempDir())
	require.NoError(t, err)

	asset, err := store.Upload(context.Background(), Upload{
		Folder:      "payment-proofs/bk-1",
		Filename:    "receipt.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.PublicID, "payment-proofs/bk-1/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".pdf"))
	assert.Equal(t, "http://localhost:8080/media/"+asset.PublicID, asset.URL)
	assert.Equal(t, int64(8), asset.Bytes)

	rc, err := store.Open(asset.PublicID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-1.4", string(body))

	require.NoError(t, store.Delete(context.Background(), asset.PublicID))
	_, err = store.Open(asset.PublicID)
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), asset.PublicID))
}

func TestMockStore_RejectsTraversal(t *testing.T) {
	store, err := NewMockStore("http://localhost", t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Delete(context.Background(), "a/../../b"), domain.ErrInvalidInput)
}

func TestSignParams(t *testing.T) {
	params := map[string]string{"timestamp": "1315060510", "public_id": "sample"}
	sum := sha1.Sum([]byte("public_id=sample&timestamp=1315060510secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), signParams(params, "secret"))
}

func TestCloudinaryStore_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/auto/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "damage-photos", r.FormValue("folder"))
		assert.NotEmpty(t, r.FormValue("signature"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"public_id":  "damage-photos/abc",
			"secure_url": "https://res.cloudinary.com/demo/image/upload/damage-photos/abc.jpg",
			"format":     "jpg",
			"bytes":      3,
		})
	}))
	defer srv.Close()

	store := NewCloudinaryStore(CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL},
		resilience.NewBreaker("cloudinary-upload-test", resilience.Settings{}))
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	asset, err := store.Upload(context.Background(), Upload{
		Folder: "damage-photos", Filename: "lens.jpg", ContentType: "image/jpeg", Body: strings.NewReader("abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "damage-photos/abc", asset.PublicID)
	assert.Equal(t, "jpg", asset.Format)
	assert.Equal(t, int64(3), asset.Bytes)
}

func TestCloudinaryStore_UploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	store := NewCloudinaryStore(CloudinaryConfig{CloudName: "demo", BaseURL: srv.URL},
		resilience.NewBreaker("cloudinary-error-test", resilience.Settings{}))

	_, err := store.Upload(context.Background(), Upload{Filename: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

func TestCloudinaryStore_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "damage-photos/abc", r.FormValue("public_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"not found"}`))
	}))
	defer srv.Close()

	store := NewCloudinaryStore(CloudinaryConfig{CloudName: "demo", BaseURL: srv.URL},
		resilience.NewBreaker("cloudinary-delete-test", resilience.Settings{}))
	assert.NoError(t, store.Delete(context.Background(), "damage-photos/abc"))
}
