// Package rpc exposes the bulk action host over COMMS request/reply.
package rpc

import "encoding/json"

// Request is the JSON envelope for incoming COMMS bulk action requests.
type Request struct {
	ID     string             `json:"id"`
	Method string             `json:"method"`
	Ver    string             `json:"ver,omitempty"`
	Params json.RawMessage    `json:"params"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// Response is the JSON envelope for COMMS responses.
type Response struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// InvocationContext identifies the acting user and what they may do.
type InvocationContext struct {
	UserID       string   `json:"userId,omitempty"`
	RequestID    string   `json:"requestId,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	DeadlineMs   int      `json:"deadlineMs,omitempty"`
	TimeoutMs    int      `json:"timeoutMs,omitempty"`
}

// ListParams selects the screen whose menu to build.
type ListParams struct {
	Screen string `json:"screen"`
}

// ListResult is the menu for a screen.
type ListResult struct {
	Screen  string      `json:"screen"`
	Actions []MenuEntry `json:"actions"`
}

// MenuEntry is one selectable action.
type MenuEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DispatchParams carries a submitted bulk action.
type DispatchParams struct {
	Screen     string        `json:"screen"`
	Action     string        `json:"action"`
	IDs        []interface{} `json:"ids"`
	RedirectTo string        `json:"redirectTo"`
}

// DispatchResult is the redirect to follow after dispatch.
type DispatchResult struct {
	RedirectTo string `json:"redirectTo"`
	Handled    bool   `json:"handled"`
}

// NoticeParams carries the query of the page being rendered.
type NoticeParams struct {
	Screen string `json:"screen"`
	Query  string `json:"query"`
}

// NoticeResult holds the notices to show.
type NoticeResult struct {
	Notices []NoticeEntry `json:"notices"`
}

// NoticeEntry is one notice.
type NoticeEntry struct {
	Action string `json:"action"`
	Class  string `json:"class"`
	Text   string `json:"text"`
	Count  int    `json:"count"`
}

// HealthResult reports router health.
type HealthResult struct {
	Status          string `json:"status"`
	ProtocolVersion string `json:"protocolVersion"`
	Timestamp       string `json:"timestamp"`
}
