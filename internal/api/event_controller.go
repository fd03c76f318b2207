package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/models"
	"eventhub-backend/internal/service"
)

type locationRequest struct {
	Address   string   `json:"address" binding:"required"`
	City      string   `json:"city" binding:"required"`
	State     string   `json:"state"`
	Country   string   `json:"country" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type timeRequest struct {
	Start string `json:"start" binding:"required,hhmm"`
	End   string `json:"end" binding:"required,hhmm"`
}

// eventRequest is shared by create and update. Required fields are enforced
// by the service so that updates may send any subset.
type eventRequest struct {
	Title        *string             `json:"title" binding:"omitempty,max=200"`
	Description  *string             `json:"description" binding:"omitempty,max=5000"`
	Location     *locationRequest    `json:"location"`
	Date         *string             `json:"date"`
	Time         *timeRequest        `json:"time"`
	Category     *string             `json:"category" binding:"omitempty,event_category"`
	Capacity     *int                `json:"capacity" binding:"omitempty,min=1,max=10000"`
	Price        *float64            `json:"price" binding:"omitempty,min=0"`
	Currency     *string             `json:"currency" binding:"omitempty,currency"`
	Image        *string             `json:"image"`
	Tags         []string            `json:"tags" binding:"omitempty,dive,max=50"`
	Requirements *string             `json:"requirements" binding:"omitempty,max=1000"`
	ContactInfo  *models.ContactInfo `json:"contactInfo"`
	Status       *models.EventStatus `json:"status" binding:"omitempty,oneof=draft published cancelled completed"`
}

func (r eventRequest) input() (service.EventInput, error) {
	in := service.EventInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Capacity:     r.Capacity,
		Price:        r.Price,
		Currency:     r.Currency,
		Image:        r.Image,
		Tags:         r.Tags,
		Requirements: r.Requirements,
		ContactInfo:  r.ContactInfo,
		Status:       r.Status,
	}
	if r.Location != nil {
		in.Location = &models.Location{
			Address:   r.Location.Address,
			City:      r.Location.City,
			State:     r.Location.State,
			Country:   r.Location.Country,
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
		}
	}
	if r.Time != nil {
		in.Time = &models.TimeWindow{Start: r.Time.Start, End: r.Time.End}
	}
	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	return in, nil
}

func (h *Handler) ListEvents(c *gin.Context) {
	filter := service.EventFilter{
		Category:  c.Query("category"),
		Location:  c.Query("location"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      pageParams(c, 10),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.Date = &date
	}

	events, meta, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"events": events, "pagination": meta})
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, err := pathID(c, "id", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}

	event, status, err := h.events.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var userRSVP interface{}
	if status != "" {
		userRSVP = status
	}
	respond(c, http.StatusOK, gin.H{"event": event, "userRSVP": userRSVP})
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		h.respondError(c, err)
		return
	}

	event, err := h.events.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Event created successfully", "event": event})
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	id, err := pathID(c, "id", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	in, err := req.input()
	if err != nil {
		h.respondError(c, err)
		return
	}

	event, err := h.events.Update(c.Request.Context(), id, currentUser(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Event updated successfully", "event": event})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id, err := pathID(c, "id", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.events.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *Handler) MyEvents(c *gin.Context) {
	events, meta, err := h.events.ListByOrganizer(
		c.Request.Context(),
		currentUser(c).ID,
		models.EventStatus(c.Query("status")),
		pageParams(c, 10),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"events": events, "pagination": meta})
}
