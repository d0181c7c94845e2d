package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Chat endpoints.
	ProcessMessageHandler gin.HandlerFunc
	GetSessionHandler     gin.HandlerFunc
	ResetSessionHandler   gin.HandlerFunc
	GetOrdersHandler      gin.HandlerFunc
}
