// Package api defines the wire types shared by the proxy's client-facing
// "structured responses" protocol (ORS): input items, content parts, and
// the request body accepted by POST /v1/responses.
package api

import (
	"encoding/json"
	"fmt"
)

// Role is the sender of a message item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
)

// ContentPartType distinguishes the kinds of content a message item can carry.
type ContentPartType string

const (
	ContentPartInputText  ContentPartType = "input_text"
	ContentPartInputImage ContentPartType = "input_image"
	ContentPartOutputText ContentPartType = "output_text"
)

// ContentPart is one part of a message item's content, either a text block
// or an opaque image reference. The same shape serves both request-supplied
// input parts and transcoder-produced output parts.
type ContentPart struct {
	Type  ContentPartType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Image json.RawMessage `json:"image,omitempty"`
}

// ItemType discriminates the three ORS input item kinds.
type ItemType string

const (
	ItemTypeMessage            ItemType = "message"
	ItemTypeFunctionCall       ItemType = "function_call"
	ItemTypeFunctionCallOutput ItemType = "function_call_output"
)

// ItemStatus is the lifecycle status of an output item.
type ItemStatus string

const (
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusIncomplete ItemStatus = "incomplete"
	ItemStatusCompleted  ItemStatus = "completed"
)

// MessageData holds the fields specific to a message item.
type MessageData struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

// FunctionCallData holds the fields specific to a function-call item.
// Arguments is the accumulated JSON-of-arguments text, carried as a string
// on the wire (the function's arguments are not parsed or validated by
// this proxy), not a nested JSON object.
type FunctionCallData struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionCallOutputData holds the fields specific to a function-call-output item.
type FunctionCallOutputData struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// Item is a tagged-union ORS input/output item. Exactly one of Message,
// FunctionCall, or FunctionCallOutput is populated, selected by Type.
// Items are immutable once constructed; callers must not mutate a shared
// Item in place.
type Item struct {
	ID     string     `json:"id,omitempty"`
	Type   ItemType   `json:"type"`
	Status ItemStatus `json:"status,omitempty"`

	Message            *MessageData
	FunctionCall       *FunctionCallData
	FunctionCallOutput *FunctionCallOutputData
}

// itemWireBase is the set of fields common to every flattened item shape.
type itemWireBase struct {
	ID     string     `json:"id,omitempty"`
	Type   ItemType   `json:"type"`
	Status ItemStatus `json:"status,omitempty"`
}

// MarshalJSON flattens Item to the ORS wire format: type-specific fields sit
// at the top level rather than nested under a variant wrapper.
func (item Item) MarshalJSON() ([]byte, error) {
	base := itemWireBase{ID: item.ID, Type: item.Type, Status: item.Status}
	switch item.Type {
	case ItemTypeMessage:
		type wire struct {
			itemWireBase
			Role    Role          `json:"role"`
			Content []ContentPart `json:"content"`
		}
		w := wire{itemWireBase: base}
		if item.Message != nil {
			w.Role = item.Message.Role
			w.Content = item.Message.Content
		}
		if w.Content == nil {
			w.Content = []ContentPart{}
		}
		return json.Marshal(w)
	case ItemTypeFunctionCall:
		type wire struct {
			itemWireBase
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		}
		w := wire{itemWireBase: base}
		if item.FunctionCall != nil {
			w.CallID = item.FunctionCall.CallID
			w.Name = item.FunctionCall.Name
			w.Arguments = item.FunctionCall.Arguments
		}
		return json.Marshal(w)
	case ItemTypeFunctionCallOutput:
		type wire struct {
			itemWireBase
			CallID string `json:"call_id"`
			Output string `json:"output"`
		}
		w := wire{itemWireBase: base}
		if item.FunctionCallOutput != nil {
			w.CallID = item.FunctionCallOutput.CallID
			w.Output = item.FunctionCallOutput.Output
		}
		return json.Marshal(w)
	default:
		return nil, fmt.Errorf("api: item has unknown type %q", item.Type)
	}
}

// UnmarshalJSON decodes Item from the ORS flat wire format, dispatching on
// the type discriminator.
func (item *Item) UnmarshalJSON(data []byte) error {
	var base struct {
		ID      string          `json:"id"`
		Type    ItemType        `json:"type"`
		Status  ItemStatus      `json:"status"`
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
		CallID  string          `json:"call_id"`
		Name    string          `json:"name"`
		Arguments string        `json:"arguments"`
		Output  string          `json:"output"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("api: decode item: %w", err)
	}

	item.ID = base.ID
	item.Type = base.Type
	item.Status = base.Status

	switch base.Type {
	case ItemTypeMessage:
		md := &MessageData{Role: base.Role}
		if len(base.Content) > 0 && string(base.Content) != "null" {
			if err := json.Unmarshal(base.Content, &md.Content); err != nil {
				return fmt.Errorf("api: decode message content: %w", err)
			}
		}
		item.Message = md
	case ItemTypeFunctionCall:
		item.FunctionCall = &FunctionCallData{
			CallID:    base.CallID,
			Name:      base.Name,
			Arguments: base.Arguments,
		}
	case ItemTypeFunctionCallOutput:
		item.FunctionCallOutput = &FunctionCallOutputData{
			CallID: base.CallID,
			Output: base.Output,
		}
	default:
		return fmt.Errorf("api: item has unknown type %q", base.Type)
	}
	return nil
}

// CreateResponseRequest is the body accepted by POST /v1/responses.
// Store and Stream are accepted for client compatibility but the proxy
// always streams and always stores (see orchestrator).
type CreateResponseRequest struct {
	Model              string `json:"model"`
	Input              []Item `json:"input"`
	Store              *bool  `json:"store,omitempty"`
	Stream              *bool  `json:"stream,omitempty"`
	PreviousResponseID string `json:"previous_response_id,omitempty"`
}
