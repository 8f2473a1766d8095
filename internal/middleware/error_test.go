package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
)

func newErrorApp(t *testing.T, handler fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logging.NewDevelopment()),
	})
	app.Get("/test", handler)
	return app
}

func TestErrorHandler_FiberError(t *testing.T) {
	tests := []struct {
		name           string
		fiberError     *fiber.Error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "BadRequest error",
			fiberError:     fiber.ErrBadRequest,
			expectedStatus: fiber.StatusBadRequest,
			expectedMsg:    "Bad Request",
		},
		{
			name:           "NotFound error",
			fiberError:     fiber.ErrNotFound,
			expectedStatus: fiber.StatusNotFound,
			expectedMsg:    "Not Found",
		},
		{
			name:           "ServiceUnavailable error",
			fiberError:     fiber.ErrServiceUnavailable,
			expectedStatus: fiber.StatusServiceUnavailable,
			expectedMsg:    "Service Unavailable",
		},
		{
			name:           "Custom fiber error",
			fiberError:     fiber.NewError(fiber.StatusTeapot, "I'm a teapot"),
			expectedStatus: fiber.StatusTeapot,
			expectedMsg:    "I'm a teapot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newErrorApp(t, func(c *fiber.Ctx) error {
				return tt.fiberError
			})

			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			var errResp models.ErrorResponse
			if err := json.Unmarshal(body, &errResp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			if errResp.Error.Message != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, errResp.Error.Message)
			}

			if errResp.Error.Code != CodeError {
				t.Errorf("Expected code %q, got %q", CodeError, errResp.Error.Code)
			}

			if errResp.Error.Path != "/test" {
				t.Errorf("Expected path '/test', got %q", errResp.Error.Path)
			}
		})
	}
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "unknown signal maps to 404",
			err:            baseline.ErrUnknownSignal,
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   CodeUnknownSignal,
		},
		{
			name:           "non-finite sample maps to 400",
			err:            baseline.ErrNonFinite,
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   CodeInvalidSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newErrorApp(t, func(c *fiber.Ctx) error {
				return tt.err
			})

			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to test request: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body, _ := io.ReadAll(resp.Body)
			var errResp models.ErrorResponse
			if err := json.Unmarshal(body, &errResp); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			if errResp.Error.Code != tt.expectedCode {
				t.Errorf("Expected code %q, got %q", tt.expectedCode, errResp.Error.Code)
			}
		})
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	app := newErrorApp(t, func(c *fiber.Ctx) error {
		return errors.New("something went wrong")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Generic errors should return 500 Internal Server Error
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", fiber.StatusInternalServerError, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if errResp.Error.Message != "Internal Server Error" {
		t.Errorf("Expected message 'Internal Server Error', got %q", errResp.Error.Message)
	}
}

func TestErrorHandler_ResponseFormat(t *testing.T) {
	app := newErrorApp(t, func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", contentType)
	}

	body, _ := io.ReadAll(resp.Body)
	var rawResp map[string]interface{}
	if err := json.Unmarshal(body, &rawResp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	errorObj, exists := rawResp["error"]
	if !exists {
		t.Fatal("Response should have 'error' key")
	}

	errorMap, ok := errorObj.(map[string]interface{})
	if !ok {
		t.Fatal("Error object should be a map")
	}

	for _, field := range []string{"code", "message", "path"} {
		if _, exists := errorMap[field]; !exists {
			t.Errorf("Error object should have %q field", field)
		}
	}
}
