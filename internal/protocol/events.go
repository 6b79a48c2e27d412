package protocol

import (
	"bytes"
	"encoding/json"
)

// CommandEvent is the decoded form of an outgoing request, reduced to the
// fields context tracking cares about. It is emitted before dispatch.
type CommandEvent struct {
	Command Command
	// Handle is the window handle carried by window and frame commands.
	// Empty when the command has no handle field.
	Handle string
	// Name is the target context name of a mobile switchContext command.
	Name string
}

// ResultEvent is the decoded form of a completed command's response,
// emitted after the response arrives.
type ResultEvent struct {
	Command Command
	// Value is the response value rendered as a string when it is a JSON
	// string; empty otherwise.
	Value string
	// Null reports whether the response value was JSON null or absent.
	// An empty string value is not null.
	Null bool
}

// DecodeCommandEvent reduces a wire request to its event form. Malformed or
// missing params decode to zero fields rather than an error.
func DecodeCommandEvent(req Request) CommandEvent {
	ev := CommandEvent{Command: req.Command}
	if len(req.Params) == 0 {
		return ev
	}
	var body struct {
		Handle string `json:"handle"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &body); err != nil {
		return ev
	}
	ev.Handle = body.Handle
	ev.Name = body.Name
	return ev
}

// DecodeResultEvent reduces a wire response to its event form.
func DecodeResultEvent(cmd Command, resp Response) ResultEvent {
	ev := ResultEvent{Command: cmd}
	if len(resp.Value) == 0 || bytes.Equal(bytes.TrimSpace(resp.Value), []byte("null")) {
		ev.Null = true
		return ev
	}
	var s string
	if err := json.Unmarshal(resp.Value, &s); err == nil {
		ev.Value = s
	}
	return ev
}

// StringValue decodes a response value expected to be a JSON string.
func StringValue(resp Response) (string, error) {
	var s string
	if err := json.Unmarshal(resp.Value, &s); err != nil {
		return "", err
	}
	return s, nil
}

// StringsValue decodes a response value expected to be a JSON string array.
func StringsValue(resp Response) ([]string, error) {
	var out []string
	if err := json.Unmarshal(resp.Value, &out); err != nil {
		return nil, err
	}
	return out, nil
}
