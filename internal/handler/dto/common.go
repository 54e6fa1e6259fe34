// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// MessageResponse is the body of responses that carry only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
