package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	recordsRepo "glowdesk/database/repository/records"
	sessionRepo "glowdesk/database/repository/session"
	"glowdesk/models"
	"glowdesk/services/conversation"
)

// ChatHandler exposes the booking conversation over HTTP.
type ChatHandler struct {
	Machine *conversation.Machine
	Store   sessionRepo.Store
	Records recordsRepo.OrderRecordRepository
	Logger  *zap.Logger
}

// NewChatHandler wires the conversation machine into the HTTP layer.
func NewChatHandler(machine *conversation.Machine, store sessionRepo.Store,
	records recordsRepo.OrderRecordRepository, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Machine: machine, Store: store, Records: records, Logger: logger}
}

// ProcessMessageHandler runs one inbound chat message through the
// conversation machine and returns the reply plus session snapshot.
func (h *ChatHandler) ProcessMessageHandler(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reply, err := h.Machine.ProcessMessage(c.Request.Context(), req.CustomerID, req.Text)
	if err != nil {
		h.Logger.Error("chat message processing failed",
			zap.String("customerId", req.CustomerID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GetSessionHandler returns the live session snapshot for a customer.
func (h *ChatHandler) GetSessionHandler(c *gin.Context) {
	customerID := c.Param("customerId")
	session, err := h.Store.Get(c.Request.Context(), customerID)
	if err != nil {
		if errors.Is(err, sessionRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// ResetSessionHandler discards the customer's session; the next message
// starts a fresh conversation.
func (h *ChatHandler) ResetSessionHandler(c *gin.Context) {
	customerID := c.Param("customerId")
	if err := h.Store.Delete(c.Request.Context(), customerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// GetOrdersHandler lists the archived finalized orders of a customer.
func (h *ChatHandler) GetOrdersHandler(c *gin.Context) {
	customerID := c.Param("customerId")
	records, err := h.Records.GetByCustomerID(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, records)
}
