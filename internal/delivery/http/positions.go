package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"golang-portfolio/internal/dto"
	"golang-portfolio/internal/model"
)

func (h *HttpAPIHandler) SetupPositions(base *echo.Group) {
	positionsGroup := base.Group("/positions")
	positionsGroup.POST("/metrics", h.computePositionMetrics)
}

func (h *HttpAPIHandler) computePositionMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.PositionRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.PositionService.ComputePortfolio(ctx, *req)
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to compute position metrics", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("position metrics computed", result))
}
