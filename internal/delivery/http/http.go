package http

import (
	"context"
	"errors"
	"net/http"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"golang-portfolio/internal/model"
	"golang-portfolio/internal/service"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupBacktest(base)
	h.SetupPositions(base)
}

// errorResponse maps engine errors to HTTP status codes: malformed input and
// degenerate configurations are the caller's fault, everything else is ours.
func errorResponse(c echo.Context, err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) || errors.Is(err, model.ErrInvalidConfiguration) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
