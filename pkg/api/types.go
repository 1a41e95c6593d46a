package api

import "github.com/ssargent/msgstore/pkg/message"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MessageList is the response body of the list endpoint
type MessageList struct {
	Messages []message.Message `json:"messages"`
	// Next is the cursor for the following page, 0 when exhausted
	Next uint64 `json:"next,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Addr   string // Listen address, host:port
	APIKey string // Required X-API-Key value; empty disables the check
}

// maxBodyBytes caps request bodies; encoded messages are far smaller
const maxBodyBytes = 64 * 1024
