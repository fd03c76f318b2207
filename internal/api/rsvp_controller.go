package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-backend/internal/models"
	"eventhub-backend/internal/service"
)

type rsvpRequest struct {
	Status          models.RSVPStatus `json:"status" binding:"required,rsvp_status"`
	Guests          int               `json:"guests" binding:"min=0,max=10"`
	Notes           *string           `json:"notes" binding:"omitempty,max=500"`
	SpecialRequests *string           `json:"specialRequests" binding:"omitempty,max=300"`
}

func (h *Handler) RespondRSVP(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	rsvp, created, err := h.rsvps.Respond(c.Request.Context(), currentUser(c).ID, eventID, service.RespondInput{
		Status:          req.Status,
		Guests:          req.Guests,
		Notes:           req.Notes,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if created {
		respond(c, http.StatusCreated, gin.H{"message": "RSVP created successfully", "rsvp": rsvp})
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "RSVP updated successfully", "rsvp": rsvp})
}

func (h *Handler) GetRSVP(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	rsvp, err := h.rsvps.Get(c.Request.Context(), currentUser(c).ID, eventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"rsvp": rsvp})
}

func (h *Handler) CancelRSVP(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.rsvps.Cancel(c.Request.Context(), currentUser(c).ID, eventID); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "RSVP cancelled successfully"})
}

func (h *Handler) MyRSVPs(c *gin.Context) {
	rsvps, meta, err := h.rsvps.ListMine(
		c.Request.Context(),
		currentUser(c).ID,
		models.RSVPStatus(c.Query("status")),
		pageParams(c, 10),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"rsvps": rsvps, "pagination": meta})
}

func (h *Handler) EventRSVPs(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}

	rsvps, counts, meta, err := h.rsvps.ListForEvent(
		c.Request.Context(),
		currentUser(c).ID,
		eventID,
		models.RSVPStatus(c.Query("status")),
		pageParams(c, 50),
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"rsvps": rsvps, "counts": counts, "pagination": meta})
}

func (h *Handler) CheckIn(c *gin.Context) {
	eventID, err := pathID(c, "eventId", "event")
	if err != nil {
		h.respondError(c, err)
		return
	}
	attendeeID, err := pathID(c, "userId", "user")
	if err != nil {
		h.respondError(c, err)
		return
	}

	rsvp, err := h.rsvps.CheckIn(c.Request.Context(), currentUser(c).ID, eventID, attendeeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Attendee checked in successfully", "rsvp": rsvp})
}
