package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Locals keys set by ClientInfo.
const (
	LocalClientID         = "client_id"
	LocalExtensionVersion = "extension_version"
	LocalRequestID        = "request_id"
)

// ClientInfo captures the extension's identification headers into request
// locals and tags every request with an ID for log correlation.
func ClientInfo(c fiber.Ctx) error {
	c.Locals(LocalClientID, c.Get("X-Client-ID"))
	c.Locals(LocalExtensionVersion, c.Get("X-Extension-Version"))

	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Locals(LocalRequestID, requestID)
	c.Set("X-Request-ID", requestID)

	return c.Next()
}

// ClientID returns the client ID captured by ClientInfo, or "".
func ClientID(c fiber.Ctx) string {
	if v, ok := c.Locals(LocalClientID).(string); ok {
		return v
	}
	return ""
}
