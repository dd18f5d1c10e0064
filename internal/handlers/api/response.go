package api

import "github.com/gofiber/fiber/v3"

// Every endpoint answers in one envelope. The extension's background worker
// branches on the status field alone, so success and failure must stay
// shape-compatible: {"status": "ok", "data": ...} vs
// {"status": "error", "error": ...}.

func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
