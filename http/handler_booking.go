package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"chefmarket/entity"
	"chefmarket/pkg/money"
	"chefmarket/pkg/timeslot"
)

type storageItemView struct {
	StorageBookingID int64  `json:"storageBookingId"`
	Name             string `json:"name"`
	StorageType      string `json:"storageType"`
	Status           string `json:"status"`
	Price            string `json:"price"`
	RentalWindow     string `json:"rentalWindow"`
}

type equipmentItemView struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type bookingView struct {
	ID             int64               `json:"id"`
	Status         string              `json:"status"`
	Slot           string              `json:"slot"`
	TotalPrice     string              `json:"totalPrice"`
	StorageItems   []storageItemView   `json:"storageItems"`
	EquipmentItems []equipmentItemView `json:"equipmentItems"`
}

func (s *Server) GetBooking(c echo.Context) error {
	bookingID, err := strconv.ParseInt(c.Param("booking_id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "booking id must be a positive integer")
	}

	agg, err := s.bookingsRepo.LoadForApproval(c.Request().Context(), bookingID)
	if errors.Is(err, entity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return err
	}

	if agg.Booking.ManagerID != managerIDFrom(c) {
		return echo.NewHTTPError(http.StatusForbidden, "booking belongs to another manager")
	}

	slot, err := timeslot.FormatSlot(agg.Booking.BookingDate, agg.Booking.StartTime, agg.Booking.EndTime, agg.Booking.Timezone)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookingView{
		ID:         agg.Booking.ID,
		Status:     string(agg.Booking.Status),
		Slot:       slot,
		TotalPrice: money.FormatCents(agg.Booking.PriceCents()),
		StorageItems: lo.Map(agg.StorageItems, func(item entity.StorageItem, _ int) storageItemView {
			return storageItemView{
				StorageBookingID: item.StorageBookingID,
				Name:             item.Name,
				StorageType:      string(item.StorageType),
				Status:           string(item.Status),
				Price:            money.FormatCents(item.PriceCents()),
				RentalWindow:     timeslot.FormatDateRange(item.StartDate, item.EndDate),
			}
		}),
		EquipmentItems: lo.Map(agg.EquipmentItems, func(item entity.EquipmentItem, _ int) equipmentItemView {
			price := int64(0)
			if item.TotalPriceCents != nil {
				price = *item.TotalPriceCents
			}
			return equipmentItemView{
				Name:  item.Name,
				Price: money.FormatCents(price),
			}
		}),
	})
}
