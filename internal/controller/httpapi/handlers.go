package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const wallTimeLayout = "2006-01-02T15:04"

// parseWallTime принимает локальное время без зоны; зона, если передана, отбрасывается
func parseWallTime(s string) (time.Time, error) {
	for _, layout := range []string{wallTimeLayout, "2006-01-02T15:04:05", time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return service.WallClock{}.Strip(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

func queryDate(c *gin.Context, name string) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, c.Query(name))
	if err != nil {
		badRequest(c, "invalid "+name+", expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return d, true
}

type holdResponse struct {
	Blocks    []*model.BlockingInterval `json:"blocks"`
	ExpiresAt string                    `json:"expires_at"`
}

func newHoldResponse(h *service.TentativeHold) holdResponse {
	return holdResponse{Blocks: h.Blocks, ExpiresAt: h.ExpiresAt.Format(wallTimeLayout)}
}

// --- доступность ---

func (a *API) getAvailability(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	start, ok := queryDate(c, "start")
	if !ok {
		return
	}
	end, ok := queryDate(c, "end")
	if !ok {
		return
	}

	duration := availability.DefaultSlotDuration
	if raw := c.Query("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			badRequest(c, "invalid duration", err)
			return
		}
		duration = d
	}

	days, err := a.svc.Availability.GenerateSlotsForDateRange(c.Request.Context(), instructorID, start, end, duration)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instructor_id": instructorID, "days": days})
}

func (a *API) checkAvailability(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	check, err := a.svc.Availability.CheckSlotsAvailable(c.Request.Context(), instructorID, date, c.Query("start"), c.Query("end"))
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

// --- рабочие часы ---

type workingHoursRequest struct {
	DayOfWeek   *int            `json:"day_of_week" binding:"required"`
	StartTime   model.TimeOfDay `json:"start_time"`
	EndTime     model.TimeOfDay `json:"end_time"`
	SeasonStart *model.MonthDay `json:"season_start"`
	SeasonEnd   *model.MonthDay `json:"season_end"`
}

func (a *API) listWorkingHours(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rules, err := a.svc.WorkingHours.ListRules(c.Request.Context(), instructorID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (a *API) setWorkingHours(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req workingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	rule := &model.WorkingHourRule{
		InstructorID: instructorID,
		DayOfWeek:    *req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SeasonStart:  req.SeasonStart,
		SeasonEnd:    req.SeasonEnd,
	}
	if err := a.svc.WorkingHours.SetRule(c.Request.Context(), rule); err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (a *API) deactivateWorkingHours(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		badRequest(c, "invalid day", err)
		return
	}

	if err := a.svc.WorkingHours.DeactivateRule(c.Request.Context(), instructorID, day); err != nil {
		a.JSONError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- блоки ---

type manualBlockRequest struct {
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
	AllDay bool   `json:"all_day"`
}

func (a *API) addManualBlock(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req manualBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	start, err := parseWallTime(req.Start)
	if err != nil {
		badRequest(c, "invalid start", err)
		return
	}
	end, err := parseWallTime(req.End)
	if err != nil {
		badRequest(c, "invalid end", err)
		return
	}

	block, err := a.svc.Calendar.AddManualBlock(c.Request.Context(), instructorID, start, end, req.AllDay)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusCreated, block)
}

func (a *API) removeManualBlock(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}
	blockID, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		badRequest(c, "invalid block id", err)
		return
	}

	if err := a.svc.Calendar.RemoveManualBlock(c.Request.Context(), instructorID, blockID); err != nil {
		a.JSONError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type externalEventRequest struct {
	EventID string `json:"event_id" binding:"required"`
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
	AllDay  bool   `json:"all_day"`
}

type externalBlocksRequest struct {
	Events []externalEventRequest `json:"events" binding:"dive"`
}

func (a *API) replaceExternalBlocks(c *gin.Context) {
	instructorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req externalBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	events := make([]service.ExternalEvent, 0, len(req.Events))
	for _, e := range req.Events {
		start, err := parseWallTime(e.Start)
		if err != nil {
			badRequest(c, "invalid event start", err)
			return
		}
		end, err := parseWallTime(e.End)
		if err != nil {
			badRequest(c, "invalid event end", err)
			return
		}
		events = append(events, service.ExternalEvent{EventID: e.EventID, Start: start, End: end, AllDay: e.AllDay})
	}

	blocks, err := a.svc.Calendar.ReplaceExternalBlocks(c.Request.Context(), instructorID, events)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

// --- заявки ---

type createBookingRequest struct {
	InstructorID int64    `json:"instructor_id" binding:"required"`
	ClientID     int64    `json:"client_id" binding:"required"`
	StartDate    string   `json:"start_date" binding:"required"`
	EndDate      string   `json:"end_date" binding:"required"`
	HoursPerDay  int      `json:"hours_per_day" binding:"required,min=1,max=24"`
	TimeSlots    []string `json:"time_slots"`
}

func (a *API) createBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		badRequest(c, "invalid start_date", err)
		return
	}
	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		badRequest(c, "invalid end_date", err)
		return
	}

	booking, hold, err := a.svc.Bookings.CreateBookingRequest(c.Request.Context(), service.BookingInput{
		InstructorID: req.InstructorID,
		ClientID:     req.ClientID,
		StartDate:    start,
		EndDate:      end,
		HoursPerDay:  req.HoursPerDay,
		TimeSlots:    req.TimeSlots,
	})
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking, "hold": newHoldResponse(hold)})
}

func (a *API) getBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	booking, err := a.svc.Bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	blocks, err := a.svc.Holds.Blocks(c.Request.Context(), bookingID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking, "blocks": blocks})
}

type actorRequest struct {
	InstructorID int64 `json:"instructor_id"`
	ClientID     int64 `json:"client_id"`
}

func (a *API) bindActor(c *gin.Context) (actorRequest, bool) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return req, false
	}
	return req, true
}

func (a *API) acceptBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := a.bindActor(c)
	if !ok {
		return
	}

	booking, err := a.svc.Bookings.AcceptBooking(c.Request.Context(), bookingID, actor.InstructorID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (a *API) rejectBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := a.bindActor(c)
	if !ok {
		return
	}

	booking, err := a.svc.Bookings.RejectBooking(c.Request.Context(), bookingID, actor.InstructorID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (a *API) cancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := a.bindActor(c)
	if !ok {
		return
	}

	booking, err := a.svc.Bookings.CancelBooking(c.Request.Context(), bookingID, actor.ClientID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// --- удержания ---

type holdsRequest struct {
	TimeSlots []string `json:"time_slots"`
}

func (a *API) createHolds(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req holdsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
	}

	hold, err := a.svc.Reservation.CreateTentativeBlock(c.Request.Context(), bookingID, req.TimeSlots)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newHoldResponse(hold))
}

func (a *API) releaseHolds(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	released, err := a.svc.Holds.ReleaseTentativeBlocks(c.Request.Context(), bookingID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (a *API) confirmHolds(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	confirmed, err := a.svc.Holds.ConfirmBooking(c.Request.Context(), bookingID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmed": confirmed})
}

func (a *API) canAccept(c *gin.Context) {
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	check, err := a.svc.Holds.CanAcceptBooking(c.Request.Context(), bookingID)
	if err != nil {
		a.JSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"can_accept": check.CanAccept, "reason": check.Reason})
}

func (a *API) cleanupHolds(c *gin.Context) {
	result, err := a.svc.Holds.CleanupExpiredBlocks(c.Request.Context())
	if err != nil {
		a.JSONError(c, err)
		return
	}

	resp := gin.H{
		"blocks_deleted":   result.BlocksDeleted,
		"bookings_expired": result.BookingsExpired,
		"message":          result.Message,
	}
	if result.Err != nil {
		resp["errors"] = result.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
