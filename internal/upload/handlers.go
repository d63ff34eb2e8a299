package upload

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/factbook-ai/factbook-proxy/internal/errors"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
)

// Handler handles RFP upload requests.
type Handler struct {
	service *Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewHandler creates a new upload handler.
func NewHandler(service *Service, m *metrics.Metrics, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		metrics: m,
		logger:  logger,
	}
}

// UploadRFP handles POST /api/upload with a multipart "file" field.
func (h *Handler) UploadRFP(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("upload_handler")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Warn("upload request without file", slog.String("error", err.Error()))
		h.metrics.ObserveUpload(metrics.UploadRejected)
		apierrors.BadRequest(c, msgMissingFile, nil)
		return
	}

	if !h.service.Accepts(fileHeader.Filename, fileHeader.Size) {
		log.Warn("rejected upload",
			slog.String("filename", fileHeader.Filename),
			slog.Int64("size", fileHeader.Size))
		h.metrics.ObserveUpload(metrics.UploadRejected)
		apierrors.BadRequest(c, msgInvalidFile, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("failed to open uploaded file", slog.String("error", err.Error()))
		h.metrics.ObserveUpload(metrics.UploadBackendError)
		apierrors.Internal(c, msgUploadFailed, nil)
		return
	}
	defer file.Close()

	data, err := h.service.ExtractRFP(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		log.Error("RFP extraction failed",
			slog.String("filename", fileHeader.Filename),
			slog.String("error", err.Error()))
		h.metrics.ObserveUpload(metrics.UploadBackendError)
		apierrors.Internal(c, msgUploadFailed, nil)
		return
	}

	log.Info("RFP extracted",
		slog.String("filename", fileHeader.Filename),
		slog.String("company_name", data.CompanyName))
	h.metrics.ObserveUpload(metrics.UploadOK)
	c.JSON(http.StatusOK, data)
}
