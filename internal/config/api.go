package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/careline/triage/pkg/formatting"
	"github.com/careline/triage/pkg/middleware"
	"github.com/careline/triage/pkg/openapi"
	"github.com/careline/triage/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TRIAGE_CORS_ENABLED",
	Origins:          "TRIAGE_CORS_ORIGINS",
	AllowedMethods:   "TRIAGE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TRIAGE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TRIAGE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TRIAGE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TRIAGE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TRIAGE_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "TRIAGE_OPENAPI_TITLE",
	Description: "TRIAGE_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, request limit, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath            string                `toml:"base_path"`
	MaxRequestSize      string                `toml:"max_request_size"`
	MinTranscriptLength int                   `toml:"min_transcript_length"`
	CORS                middleware.CORSConfig `toml:"cors"`
	Pagination          pagination.Config     `toml:"pagination"`
	OpenAPI             openapi.Config        `toml:"openapi"`
}

// MaxRequestSizeBytes returns the request body size cap in bytes.
func (c *APIConfig) MaxRequestSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxRequestSize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, pagination, and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxRequestSize != "" {
		c.MaxRequestSize = overlay.MaxRequestSize
	}
	if overlay.MinTranscriptLength != 0 {
		c.MinTranscriptLength = overlay.MinTranscriptLength
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "1MB"
	}
	if c.MinTranscriptLength == 0 {
		c.MinTranscriptLength = 10
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("TRIAGE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("TRIAGE_API_MAX_REQUEST_SIZE"); v != "" {
		c.MaxRequestSize = v
	}
	if v := os.Getenv("TRIAGE_API_MIN_TRANSCRIPT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinTranscriptLength = n
		}
	}
}

func (c *APIConfig) validate() error {
	if c.MinTranscriptLength < 1 {
		return fmt.Errorf("min_transcript_length must be positive")
	}
	if _, err := formatting.ParseBytes(c.MaxRequestSize); err != nil {
		return fmt.Errorf("invalid max_request_size: %w", err)
	}
	return nil
}
