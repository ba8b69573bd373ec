// Package transcoder implements the stateful mapping from Legacy
// chat-completion chunks to ORS stream events (component D).
package transcoder

import (
	"strings"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/legacy"
)

type phase int

const (
	phaseInit phase = iota
	phaseStreaming
)

// Transcoder converts one upstream stream's Legacy chunks into ORS events.
// A Transcoder is created per request and owned exclusively by the
// goroutine driving that request's pipeline; it is not safe for concurrent
// use.
type Transcoder struct {
	responseID string
	seq        int
	phase      phase

	currentItemID   string
	currentItemKind api.ItemType
	contentPartOpen bool

	// textBuf and argsBuf accumulate the full text of the currently open
	// item so content_part.done and the final output_item.done carry
	// complete content rather than a placeholder.
	textBuf strings.Builder
	argsBuf strings.Builder

	// callID and callName are carried from output_item.added through to
	// output_item.done for the current function-call item.
	callID   string
	callName string
}

// New creates a Transcoder with a freshly minted response id.
func New() *Transcoder {
	return &Transcoder{responseID: api.NewResponseID()}
}

// NewWithResponseID creates a Transcoder that reports responseID instead of
// minting its own. Used when continuing a conversation: every turn's
// response.created event carries the same id the client opened the
// conversation with, since that id also doubles as the store's
// conversation key (see orchestrator.CreateResponse).
func NewWithResponseID(responseID string) *Transcoder {
	return &Transcoder{responseID: responseID}
}

// ResponseID returns the response id this transcoder was constructed with.
func (t *Transcoder) ResponseID() string {
	return t.responseID
}

func (t *Transcoder) nextSeq() int {
	n := t.seq
	t.seq++
	return n
}

// Process consumes one Legacy chunk and returns the ORS events it produces.
// It never fails: malformed input is never delivered here (pkg/legacy
// filters that out), and missing optional fields fall back to sentinel
// values rather than errors.
func (t *Transcoder) Process(chunk legacy.ChatCompletionChunk) []api.StreamEvent {
	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]

	var events []api.StreamEvent

	if t.phase == phaseInit {
		events = append(events, t.init(choice)...)
	}

	if choice.Delta.Content != nil && *choice.Delta.Content != "" && t.currentItemID != "" {
		events = append(events, t.contentDelta(*choice.Delta.Content)...)
	}

	events = append(events, t.toolCallDeltas(choice.Delta.ToolCalls)...)

	if choice.FinishReason != nil {
		events = append(events, t.finish(*choice.FinishReason)...)
	}

	return events
}

func (t *Transcoder) init(choice legacy.Choice) []api.StreamEvent {
	t.phase = phaseStreaming

	events := []api.StreamEvent{{
		Type:           api.EventResponseCreated,
		SequenceNumber: t.nextSeq(),
		ResponseID:     t.responseID,
	}}

	hasContent := choice.Delta.Content != nil && *choice.Delta.Content != ""
	hasToolCalls := len(choice.Delta.ToolCalls) > 0
	if hasContent || !hasToolCalls {
		events = append(events, t.openMessageItem())
	}

	return events
}

func (t *Transcoder) openMessageItem() api.StreamEvent {
	t.currentItemID = api.NewMessageItemID()
	t.currentItemKind = api.ItemTypeMessage
	t.textBuf.Reset()

	return api.StreamEvent{
		Type:           api.EventOutputItemAdded,
		SequenceNumber: t.nextSeq(),
		Item: &api.Item{
			ID:     t.currentItemID,
			Type:   api.ItemTypeMessage,
			Status: api.ItemStatusInProgress,
			Message: &api.MessageData{
				Role:    api.RoleAssistant,
				Content: []api.ContentPart{},
			},
		},
	}
}

func (t *Transcoder) contentDelta(delta string) []api.StreamEvent {
	var events []api.StreamEvent

	if !t.contentPartOpen {
		t.contentPartOpen = true
		events = append(events, api.StreamEvent{
			Type:           api.EventContentPartAdded,
			SequenceNumber: t.nextSeq(),
			ItemID:         t.currentItemID,
			Part:           &api.ContentPart{Type: api.ContentPartOutputText, Text: ""},
		})
	}

	t.textBuf.WriteString(delta)
	events = append(events, api.StreamEvent{
		Type:           api.EventOutputTextDelta,
		SequenceNumber: t.nextSeq(),
		ItemID:         t.currentItemID,
		Delta:          delta,
	})
	return events
}

func (t *Transcoder) toolCallDeltas(deltas []legacy.ToolCallDelta) []api.StreamEvent {
	var events []api.StreamEvent

	for _, d := range deltas {
		if d.ID != "" {
			if t.contentPartOpen {
				events = append(events, t.closeContentPart())
			}

			name := d.Function.Name
			if name == "" {
				name = "unknown"
			}

			t.currentItemID = api.NewFunctionCallItemID()
			t.currentItemKind = api.ItemTypeFunctionCall
			t.callID = d.ID
			t.callName = name
			t.argsBuf.Reset()

			events = append(events, api.StreamEvent{
				Type:           api.EventOutputItemAdded,
				SequenceNumber: t.nextSeq(),
				Item: &api.Item{
					ID:     t.currentItemID,
					Type:   api.ItemTypeFunctionCall,
					Status: api.ItemStatusInProgress,
					FunctionCall: &api.FunctionCallData{
						CallID: d.ID,
						Name:   name,
					},
				},
			})
		}

		if d.Function.Arguments != "" && t.currentItemKind == api.ItemTypeFunctionCall {
			t.argsBuf.WriteString(d.Function.Arguments)
			events = append(events, api.StreamEvent{
				Type:           api.EventFunctionCallArgsDelta,
				SequenceNumber: t.nextSeq(),
				ItemID:         t.currentItemID,
				Delta:          d.Function.Arguments,
			})
		}
	}

	return events
}

func (t *Transcoder) closeContentPart() api.StreamEvent {
	t.contentPartOpen = false
	return api.StreamEvent{
		Type:           api.EventContentPartDone,
		SequenceNumber: t.nextSeq(),
		ItemID:         t.currentItemID,
		Part:           &api.ContentPart{Type: api.ContentPartOutputText, Text: t.textBuf.String()},
	}
}

func mapFinishStatus(reason string) api.ItemStatus {
	switch reason {
	case "stop":
		return api.ItemStatusCompleted
	case "length":
		return api.ItemStatusIncomplete
	case "content_filter":
		return api.ItemStatusIncomplete
	default:
		return api.ItemStatusCompleted
	}
}

func (t *Transcoder) finish(reason string) []api.StreamEvent {
	if t.currentItemID == "" {
		return nil
	}

	var events []api.StreamEvent
	status := mapFinishStatus(reason)

	if t.contentPartOpen {
		events = append(events, t.closeContentPart())
	}

	item := &api.Item{ID: t.currentItemID, Status: status}
	switch t.currentItemKind {
	case api.ItemTypeMessage:
		item.Type = api.ItemTypeMessage
		item.Message = &api.MessageData{
			Role:    api.RoleAssistant,
			Content: []api.ContentPart{{Type: api.ContentPartOutputText, Text: t.textBuf.String()}},
		}
	case api.ItemTypeFunctionCall:
		item.Type = api.ItemTypeFunctionCall
		item.FunctionCall = &api.FunctionCallData{
			CallID:    t.callID,
			Name:      t.callName,
			Arguments: t.argsBuf.String(),
		}
	}

	events = append(events, api.StreamEvent{
		Type:           api.EventOutputItemDone,
		SequenceNumber: t.nextSeq(),
		Item:           item,
	})

	t.currentItemID = ""
	t.currentItemKind = ""
	t.callID = ""
	t.callName = ""

	return events
}
