// Package jsonrpc decodes and validates the JSON-RPC 2.0 envelope carrying
// agent requests and builds the matching responses.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spiffcs/ghissues-agent/internal/a2a"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Accepted methods.
const (
	MethodMessageSend = "message/send"
	MethodExecute     = "execute"
)

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Error is a JSON-RPC error object. It also satisfies the error interface.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("jsonrpc %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code onto the HTTP status used to carry it.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return http.StatusBadRequest
	case CodeMethodNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewError builds an Error with optional detail.
func NewError(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// ErrParse reports a body that is not valid JSON.
func ErrParse(detail string) *Error { return NewError(CodeParseError, "Parse error", detail) }

// ErrInvalidRequest reports a well formed body that is not a valid request.
func ErrInvalidRequest(detail string) *Error {
	return NewError(CodeInvalidRequest, "Invalid Request", detail)
}

// ErrMethodNotFound reports an unsupported method.
func ErrMethodNotFound(method string) *Error {
	return NewError(CodeMethodNotFound, "Method not found", method)
}

// ErrInvalidParams reports missing or malformed params.
func ErrInvalidParams(detail string) *Error {
	return NewError(CodeInvalidParams, "Invalid params", detail)
}

// ErrInternal reports an unexpected server failure.
func ErrInternal(detail string) *Error { return NewError(CodeInternalError, "Internal error", detail) }

// Params holds the validated parameters of an accepted call.
type Params struct {
	Message       a2a.Message       `json:"message"`
	Configuration a2a.Configuration `json:"configuration,omitempty"`
	ContextID     string            `json:"contextId,omitempty"`
	TaskID        string            `json:"taskId,omitempty"`
}

// Request is a decoded and validated JSON-RPC call.
type Request struct {
	ID     json.RawMessage
	Method string
	Params Params
}

// Response is a JSON-RPC response carrying either a result or an error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResult builds a success response for id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewErrorResponse builds an error response for id. A nil id is encoded as null.
func NewErrorResponse(id json.RawMessage, err *Error) Response {
	return Response{JSONRPC: Version, ID: normalizeID(id), Error: err}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return json.RawMessage("null")
	}
	return id
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type wireParams struct {
	Message       *a2a.Message      `json:"message"`
	Messages      []a2a.Message     `json:"messages"`
	Configuration a2a.Configuration `json:"configuration"`
	ContextID     string            `json:"contextId"`
	TaskID        string            `json:"taskId"`
}

// Decode parses body into a Request. On failure the returned Request still
// carries the call id when one could be read, so the error response can
// echo it.
func Decode(body []byte) (Request, *Error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !json.Valid(body) {
			return Request{}, ErrParse(err.Error())
		}
		return Request{}, ErrInvalidRequest(err.Error())
	}

	req := Request{ID: env.ID, Method: env.Method}
	if env.JSONRPC != Version {
		return req, ErrInvalidRequest(fmt.Sprintf("jsonrpc must be %q", Version))
	}
	if env.Method == "" {
		return req, ErrInvalidRequest("method is required")
	}
	if env.Method != MethodMessageSend && env.Method != MethodExecute {
		return req, ErrMethodNotFound(env.Method)
	}

	params, rpcErr := decodeParams(env.Method, env.Params)
	if rpcErr != nil {
		return req, rpcErr
	}
	req.Params = params
	return req, nil
}

func decodeParams(method string, raw json.RawMessage) (Params, *Error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Params{}, ErrInvalidParams("params is required")
	}

	var wp wireParams
	if err := json.Unmarshal(raw, &wp); err != nil {
		return Params{}, ErrInvalidParams(err.Error())
	}

	var msg *a2a.Message
	switch {
	case wp.Message != nil:
		msg = wp.Message
	case method == MethodExecute && len(wp.Messages) > 0:
		msg = &wp.Messages[len(wp.Messages)-1]
	default:
		return Params{}, ErrInvalidParams("params.message is required")
	}

	return Params{
		Message:       *msg,
		Configuration: wp.Configuration,
		ContextID:     wp.ContextID,
		TaskID:        wp.TaskID,
	}, nil
}
