package tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Error codes reported to callers. They are the JSON-RPC codes used by MCP.
const (
	MethodNotFound = mcp.METHOD_NOT_FOUND
	InvalidParams  = mcp.INVALID_PARAMS
	InternalError  = mcp.INTERNAL_ERROR
)

// Error is a tool failure carrying a protocol error code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidParams(msg string) *Error {
	return &Error{Code: InvalidParams, Message: msg}
}

func internalError(msg string) *Error {
	return &Error{Code: InternalError, Message: msg}
}

// wrapErr wraps err into an InternalError prefixed with "Failed to <action>: ".
// Errors that already carry a code pass through unchanged.
func wrapErr(action string, err error) error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return internalError(fmt.Sprintf("Failed to %s: %s", action, err.Error()))
}

// CodeOf returns the code carried by err, or InternalError for plain errors.
func CodeOf(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return InternalError
}
