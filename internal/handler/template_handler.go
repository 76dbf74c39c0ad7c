package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grachmannico95/oms-bulk-import/internal/importer"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

type TemplateHandler struct {
	logger *logger.Logger
}

func NewTemplateHandler(log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		logger: log,
	}
}

// Download serves a blank import template such as orders.csv or skus.xlsx.
func (h *TemplateHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	var buf bytes.Buffer
	contentType, err := importer.WriteTemplate(&buf, name)
	if err != nil {
		if errors.Is(err, importer.ErrUnknownTemplate) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "unknown template",
			})
		}

		h.logger.Error(ctx, "Failed to render template",
			"template", name,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to render template",
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
