package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
)

func TestHandler_Health(t *testing.T) {
	handler := &Handler{
		logger: logging.NewDevelopment(),
	}

	app := fiber.New()
	app.Get("/health", handler.Health)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var healthResp models.HealthResponse
	if err := json.Unmarshal(body, &healthResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if healthResp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", healthResp.Status)
	}

	if healthResp.Timestamp == "" {
		t.Error("Expected non-empty timestamp")
	}
}

func TestHandler_NotFound(t *testing.T) {
	handler := &Handler{
		logger: logging.NewDevelopment(),
	}

	app := fiber.New()
	app.Use(handler.NotFound)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}

	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if errResp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected error code 'NOT_FOUND', got '%s'", errResp.Error.Code)
	}

	if errResp.Error.Path != "/nonexistent" {
		t.Errorf("Expected path '/nonexistent', got '%s'", errResp.Error.Path)
	}
}
