package steem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAppbaseFlag marks an RPC error caused by calling an API the node
	// does not expose under the appbase/legacy mode we assumed.
	ErrAppbaseFlag = errors.New("unexpected appbase flag")
	// ErrProtocol is returned when a response is not valid JSON-RPC for the request sent.
	ErrProtocol = errors.New("rpc protocol violation")
	// ErrTriesExhausted is returned when every retry hit a transport failure.
	ErrTriesExhausted = errors.New("rpc tries exhausted")
)

// RPCError is a structured error returned by steemd or jussi.
type RPCError struct {
	Code    int
	Message string
	Name    string
	Method  string
	// Index is the position inside a batch, -1 for single calls.
	Index int
}

type rpcErrorBody struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func newRPCError(body *rpcErrorBody, method string, index int) *RPCError {
	return &RPCError{
		Code:    body.Code,
		Message: body.Message,
		Name:    errorName(body),
		Method:  method,
		Index:   index,
	}
}

func errorName(body *rpcErrorBody) string {
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return "error"
	}
	var data struct {
		Name      string `json:"name"`
		ErrorID   string `json:"error_id"`
		Exception string `json:"exception"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return fmt.Sprintf("error [unspecified:%s]", string(body.Data))
	}
	switch {
	case data.Name != "":
		return data.Name
	case data.ErrorID != "":
		exception := data.Exception
		if exception == "" {
			exception = "unspecified exception"
		}
		return fmt.Sprintf("%s [jussi:%s]", exception, data.ErrorID)
	default:
		return fmt.Sprintf("error [unspecified:%s]", string(body.Data))
	}
}

// Error implements error.
func (e *RPCError) Error() string {
	msg := fmt.Sprintf("%s[%d]: `%s`", e.Name, e.Code, e.Message)
	if e.Method == "" {
		return msg
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s in %s[%d]", msg, e.Method, e.Index)
	}
	return fmt.Sprintf("%s in %s", msg, e.Method)
}

// Is reports ErrAppbaseFlag for errors about a missing or mismatched API.
func (e *RPCError) Is(target error) bool {
	if target != ErrAppbaseFlag {
		return false
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "could not find api") ||
		strings.Contains(msg, "could not find method") ||
		strings.Contains(msg, "appbase")
}
