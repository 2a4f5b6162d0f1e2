package middleware

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PPTMimeTypes are the content types accepted for slide decks.
var PPTMimeTypes = []string{
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// RejectError is returned by middleware that refuses a request before it
// reaches the handler. The global error handler renders it as-is.
type RejectError struct {
	Status  int
	Code    string
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// UploadFilter rejects multipart requests whose field part is missing,
// declares a content type outside allowed, or is larger than maxBytes.
// Parameters on the part's Content-Type are ignored and matching is
// case-insensitive. maxBytes <= 0 disables the size check.
func UploadFilter(field string, maxBytes int64, allowed ...string) fiber.Handler {
	accept := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		accept[strings.ToLower(a)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(field)
		if err != nil {
			return &RejectError{
				Status:  fiber.StatusBadRequest,
				Code:    "FILE_REQUIRED",
				Message: field + " is required",
			}
		}

		ct := fh.Header.Get(fiber.HeaderContentType)
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			ct = mt
		}
		if _, ok := accept[strings.ToLower(ct)]; !ok {
			return &RejectError{
				Status:  fiber.StatusBadRequest,
				Code:    "INVALID_FILE_TYPE",
				Message: "only PowerPoint files (.ppt, .pptx) are allowed",
			}
		}

		if maxBytes > 0 && fh.Size > maxBytes {
			return &RejectError{
				Status:  fiber.StatusRequestEntityTooLarge,
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("file exceeds the %d byte limit", maxBytes),
			}
		}

		return c.Next()
	}
}
