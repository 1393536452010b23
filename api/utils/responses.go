package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/memeplaza/meme-mining-server/api/models"
	"github.com/memeplaza/meme-mining-server/mememiner/mining"
)

// SendJSON sends a JSON response using Fiber
func SendJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// SendSuccess sends a successful JSON response
func SendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	response := models.NewSuccessResponse(data, message)
	return SendJSON(c, http.StatusOK, response)
}

// SendError sends an error JSON response
func SendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	response := models.NewErrorResponse(code, message, details)
	return SendJSON(c, statusCode, response)
}

// SendBadRequest sends a bad request error response
func SendBadRequest(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

// SendNotFound sends a not found error response
func SendNotFound(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// SendInternalServerError sends an internal server error response
func SendInternalServerError(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, nil)
}

// SendResult maps a rewards-engine result onto HTTP: OK is 200 with the
// result as data, USER_NOT_FOUND is 404, every other business rejection is
// 409 with the code and the full result attached for the frontend.
func SendResult(c *fiber.Ctx, code mining.Code, result interface{}, message string) error {
	switch code {
	case mining.CodeOK:
		return SendSuccess(c, result, message)
	case mining.CodeUserNotFound:
		return SendError(c, http.StatusNotFound, string(code), "wallet has no miner profile", nil)
	default:
		response := models.NewErrorResponse(string(code), message, nil)
		response.Data = result
		return SendJSON(c, http.StatusConflict, response)
	}
}

// GetIPAddress extracts the client IP, honoring proxy headers
func GetIPAddress(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}

// GetUserAgent extracts the user agent string
func GetUserAgent(c *fiber.Ctx) string {
	return c.Get("User-Agent")
}
