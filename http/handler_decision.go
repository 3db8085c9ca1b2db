package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"chefmarket/approval"
	"chefmarket/entity"
)

type decisionRequest struct {
	Status         entity.Action          `json:"status"`
	StorageActions []entity.StorageAction `json:"storageActions"`
}

type decisionFailureResponse struct {
	Code string          `json:"code"`
	Err  string          `json:"error"`
	Res  approval.Result `json:"result"`
}

func (s *Server) PostBookingDecision(c echo.Context) error {
	managerID := managerIDFrom(c)

	bookingID, err := strconv.ParseInt(c.Param("booking_id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id must be a positive integer")
	}

	var request decisionRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if err := request.Status.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.engine.Decide(c.Request().Context(), managerID, entity.ApprovalDecision{
		BookingID:      bookingID,
		Status:         request.Status,
		StorageActions: request.StorageActions,
	})

	switch {
	case err == nil:
		return c.JSON(http.StatusOK, res)
	case errors.Is(err, entity.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	case errors.Is(err, entity.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "booking belongs to another manager")
	case errors.Is(err, entity.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, "booking is already decided")
	case errors.Is(err, entity.ErrUnknownStorageReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrPaymentIncomplete):
		return c.JSON(http.StatusBadGateway, decisionFailureResponse{
			Code: "payment_incomplete",
			Err:  "one or more payment operations failed; retry the failed units",
			Res:  res,
		})
	case errors.Is(err, entity.ErrPersistence):
		return c.JSON(http.StatusBadGateway, decisionFailureResponse{
			Code: "persistence_failed",
			Err:  "decision settled but could not be persisted; retry the decision",
			Res:  res,
		})
	default:
		return err
	}
}
