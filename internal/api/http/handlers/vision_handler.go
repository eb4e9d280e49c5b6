package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/streetsweepai/streetsweep-service/internal/service"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
	apperrors "github.com/streetsweepai/streetsweep-service/pkg/util"
)

// VisionHandler exposes direct classification endpoints and the cached
// insight.
type VisionHandler struct {
	classifier vision.Classifier
	comparer   vision.Comparer
	insights   *service.InsightService
	maxBytes   int
}

// NewVisionHandler constructs handler.
func NewVisionHandler(classifier vision.Classifier, comparer vision.Comparer, insights *service.InsightService, maxBytes int) *VisionHandler {
	if maxBytes <= 0 {
		maxBytes = 10_000_000
	}
	return &VisionHandler{classifier: classifier, comparer: comparer, insights: insights, maxBytes: maxBytes}
}

// Classify handles POST /classify. The multipart "file" field is passed
// straight to the classifier.
func (h *VisionHandler) Classify(c *fiber.Ctx) error {
	image, err := h.readFile(c, "file")
	if err != nil {
		return err
	}

	result, err := h.classifier.Classify(c.UserContext(), image)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Compare handles POST /compare with "before" and "after" files.
func (h *VisionHandler) Compare(c *fiber.Ctx) error {
	before, err := h.readFile(c, "before")
	if err != nil {
		return err
	}
	after, err := h.readFile(c, "after")
	if err != nil {
		return err
	}

	result, err := h.comparer.Compare(c.UserContext(), before, after)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Insight handles GET /insight, serving the latest cached insight.
func (h *VisionHandler) Insight(c *fiber.Ctx) error {
	text, err := h.insights.Latest(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"insight": text})
}

func (h *VisionHandler) readFile(c *fiber.Ctx, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" file required", nil)
	}
	if header.Size > int64(h.maxBytes) {
		return nil, apperrors.NewPayloadTooLarge(field+" exceeds size limit", map[string]any{
			"max_bytes": h.maxBytes,
		})
	}
	return readMultipartFile(header)
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()
	return io.ReadAll(file)
}
