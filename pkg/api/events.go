package api

// StreamEventType identifies one of the seven ORS lifecycle event kinds the
// transcoder emits. The string value is also the SSE "event:" line.
type StreamEventType string

const (
	EventResponseCreated       StreamEventType = "response.created"
	EventOutputItemAdded       StreamEventType = "response.output_item.added"
	EventContentPartAdded      StreamEventType = "response.content_part.added"
	EventOutputTextDelta       StreamEventType = "response.output_text.delta"
	EventFunctionCallArgsDelta StreamEventType = "response.function_call_arguments.delta"
	EventContentPartDone       StreamEventType = "response.content_part.done"
	EventOutputItemDone        StreamEventType = "response.output_item.done"
)

// StreamEvent is one ORS event emitted by the transcoder. Only the fields
// relevant to Type are populated; the rest are left zero and omitted from
// the wire encoding.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	SequenceNumber int             `json:"sequence_number"`

	// ResponseID is set only on EventResponseCreated.
	ResponseID string `json:"response_id,omitempty"`

	// Item is set on output_item.added and output_item.done.
	Item *Item `json:"item,omitempty"`

	// Part is set on content_part.added and content_part.done.
	Part *ContentPart `json:"part,omitempty"`

	// Delta carries the incremental text for output_text.delta and
	// function_call_arguments.delta.
	Delta string `json:"delta,omitempty"`

	// ItemID, OutputIndex, and ContentIndex scope an event to an item
	// and, where applicable, a content part within that item.
	ItemID       string `json:"item_id,omitempty"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index,omitempty"`
}
