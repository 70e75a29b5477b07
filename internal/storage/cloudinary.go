package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/resilience"
)

const defaultCloudinaryURL = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads media through the Cloudinary REST API.
type CloudinaryStore struct {
	cfg     CloudinaryConfig
	client  *resty.Client
	breaker *resilience.Breaker
	now     func() time.Time
}

type cloudinaryUploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinaryStore(cfg CloudinaryConfig, breaker *resilience.Breaker) *CloudinaryStore {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCloudinaryURL
	}
	return &CloudinaryStore{
		cfg:     cfg,
		client:  resty.New().SetTimeout(30 * time.Second).SetBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.CloudName),
		breaker: breaker,
		now:     time.Now,
	}
}

func (c *CloudinaryStore) Upload(ctx context.Context, u Upload) (*domain.MediaAsset, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if u.Folder != "" {
		params["folder"] = u.Folder
	}
	form := c.signed(params)

	logger.ExternalServiceCall("cloudinary", "upload", "folder", u.Folder, "filename", u.Filename)
	out, err := resilience.Call(c.breaker, func() (*cloudinaryUploadResponse, error) {
		var result cloudinaryUploadResponse
		var apiErr cloudinaryError
		resp, err := c.client.R().
			SetContext(ctx).
			SetFileReader("file", u.Filename, u.Body).
			SetFormData(form).
			SetResult(&result).
			SetError(&apiErr).
			Post("/auto/upload")
		if err != nil {
			return nil, fmt.Errorf("cloudinary upload: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("cloudinary upload returned status %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return &result, nil
	})
	logger.ExternalServiceResult("cloudinary", "upload", err)
	if err != nil {
		return nil, err
	}

	return &domain.MediaAsset{
		PublicID:   out.PublicID,
		URL:        out.SecureURL,
		Format:     out.Format,
		Bytes:      out.Bytes,
		UploadedAt: c.now(),
	}, nil
}

func (c *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	form := c.signed(map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	})

	logger.ExternalServiceCall("cloudinary", "destroy", "public_id", publicID)
	err := c.breaker.Execute(func() error {
		var result cloudinaryDestroyResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetFormData(form).
			SetResult(&result).
			Post("/image/destroy")
		if err != nil {
			return fmt.Errorf("cloudinary destroy: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("cloudinary destroy returned status %d", resp.StatusCode())
		}
		if result.Result != "ok" && result.Result != "not found" {
			return fmt.Errorf("cloudinary destroy: %s", result.Result)
		}
		return nil
	})
	logger.ExternalServiceResult("cloudinary", "destroy", err)
	return err
}

// signed adds api_key and signature to params. The signature is the SHA-1
// of the sorted parameters followed by the API secret.
func (c *CloudinaryStore) signed(params map[string]string) map[string]string {
	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["signature"] = signParams(params, c.cfg.APISecret)
	form["api_key"] = c.cfg.APIKey
	return form
}

func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
