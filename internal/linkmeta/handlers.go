package linkmeta

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/factbook-ai/factbook-proxy/internal/errors"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
)

// Handler handles HTTP requests for link metadata.
type Handler struct {
	resolver *Resolver
	logger   *logger.Logger
}

// NewHandler creates a new link metadata handler.
func NewHandler(resolver *Resolver, logger *logger.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger,
	}
}

// GetLinkMetadata handles GET /api/link-metadata?url=<url>.
// Only a missing url is an error; every other failure still answers 200 with
// the url as the title.
func (h *Handler) GetLinkMetadata(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		h.logger.WithContext(c.Request.Context()).WithComponent("link_metadata_handler").
			Warn("link metadata request missing url parameter")
		apierrors.BadRequest(c, "URL is required", nil)
		return
	}

	c.JSON(http.StatusOK, h.resolver.Resolve(c.Request.Context(), rawURL))
}
