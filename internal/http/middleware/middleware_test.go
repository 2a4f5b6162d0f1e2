package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/logger"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFrom(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestRequestIDFrom_Missing(t *testing.T) {
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("[" + RequestIDFrom(c) + "]")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	assert.Equal(t, "[]", buf.String())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()

	app.Use(RequestID())
	app.Use(Logger(logger.NewWithWriter(&buf, "info")))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	require.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "http_request", logData["msg"])
	assert.Equal(t, "info", logData["level"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(Logger(logger.NewWithWriter(&buf, "info")))

	app.Get("/bad", func(c *fiber.Ctx) error {
		return &RejectError{Status: fiber.StatusBadRequest, Code: "X", Message: "nope"}
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	app.Test(httptest.NewRequest("GET", "/bad", nil))

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "warn", logData["level"])
	assert.Equal(t, float64(fiber.StatusBadRequest), logData["status"])

	buf.Reset()
	app.Test(httptest.NewRequest("GET", "/boom", nil))

	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "error", logData["level"])
	assert.Equal(t, float64(fiber.StatusInternalServerError), logData["status"])
	assert.Equal(t, "boom", logData["error"])
}

func multipartBody(t *testing.T, field, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	return multipartPayload(t, field, filename, contentType, []byte("deck bytes"))
}

func multipartPayload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadFilter(t *testing.T) {
	handled := 0
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var re *RejectError
			if errors.As(err, &re) {
				return c.Status(re.Status).SendString(re.Code)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	app.Post("/upload", UploadFilter("file", 0, PPTMimeTypes...), func(c *fiber.Ctx) error {
		handled++
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name        string
		field       string
		contentType string
		wantStatus  int
		wantCode    string
		wantHandled bool
	}{
		{
			name:        "pptx accepted",
			field:       "file",
			contentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
			wantStatus:  fiber.StatusOK,
			wantHandled: true,
		},
		{
			name:        "legacy ppt accepted case-insensitively",
			field:       "file",
			contentType: "Application/VND.ms-PowerPoint",
			wantStatus:  fiber.StatusOK,
			wantHandled: true,
		},
		{
			name:        "pdf rejected",
			field:       "file",
			contentType: "application/pdf",
			wantStatus:  fiber.StatusBadRequest,
			wantCode:    "INVALID_FILE_TYPE",
		},
		{
			name:        "octet-stream rejected",
			field:       "file",
			contentType: "application/octet-stream",
			wantStatus:  fiber.StatusBadRequest,
			wantCode:    "INVALID_FILE_TYPE",
		},
		{
			name:        "wrong field",
			field:       "attachment",
			contentType: "application/vnd.ms-powerpoint",
			wantStatus:  fiber.StatusBadRequest,
			wantCode:    "FILE_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled = 0
			body, ct := multipartBody(t, tt.field, "deck.pptx", tt.contentType)
			req := httptest.NewRequest("POST", "/upload", body)
			req.Header.Set("Content-Type", ct)

			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				buf := new(bytes.Buffer)
				buf.ReadFrom(resp.Body)
				assert.Equal(t, tt.wantCode, buf.String())
			}
			assert.Equal(t, tt.wantHandled, handled == 1)
		})
	}

	t.Run("no body", func(t *testing.T) {
		handled = 0
		resp, err := app.Test(httptest.NewRequest("POST", "/upload", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Zero(t, handled)
	})
}

func TestUploadFilter_SizeLimit(t *testing.T) {
	const limit = 1 << 20
	pptx := PPTMimeTypes[1]

	app := fiber.New(fiber.Config{
		BodyLimit: limit + 64*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var re *RejectError
			if errors.As(err, &re) {
				return c.Status(re.Status).SendString(re.Code)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	app.Post("/upload", UploadFilter("file", limit, PPTMimeTypes...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name       string
		size       int
		wantStatus int
		wantBody   string
	}{
		{name: "exactly at limit", size: limit, wantStatus: fiber.StatusOK},
		{name: "one byte over", size: limit + 1, wantStatus: fiber.StatusRequestEntityTooLarge, wantBody: "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartPayload(t, "file", "deck.pptx", pptx, bytes.Repeat([]byte{'x'}, tt.size))
			req := httptest.NewRequest("POST", "/upload", body)
			req.Header.Set("Content-Type", ct)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				buf := new(bytes.Buffer)
				buf.ReadFrom(resp.Body)
				assert.Equal(t, tt.wantBody, buf.String())
			}
		})
	}
}
