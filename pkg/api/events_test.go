package api

import (
	"encoding/json"
	"testing"
)

func TestStreamEventMarshal_CreatedOmitsUnusedFields(t *testing.T) {
	ev := StreamEvent{Type: EventResponseCreated, SequenceNumber: 0, ResponseID: "resp_abc"}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var generic map[string]any
	json.Unmarshal(data, &generic)
	for _, key := range []string{"item", "part", "delta", "item_id", "content_index"} {
		if _, ok := generic[key]; ok {
			t.Errorf("unexpected key %q in response.created event: %s", key, data)
		}
	}
	if generic["response_id"] != "resp_abc" {
		t.Errorf("response_id = %v, want resp_abc", generic["response_id"])
	}
}

func TestStreamEventMarshal_OutputItemAdded(t *testing.T) {
	item := &Item{
		ID:     "msg_1",
		Type:   ItemTypeMessage,
		Status: ItemStatusInProgress,
		Message: &MessageData{
			Role:    RoleAssistant,
			Content: []ContentPart{},
		},
	}
	ev := StreamEvent{Type: EventOutputItemAdded, SequenceNumber: 1, Item: item, OutputIndex: 0}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded StreamEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Item == nil || decoded.Item.ID != "msg_1" {
		t.Errorf("item round-trip failed: %+v", decoded.Item)
	}
}

func TestStreamEventMarshal_TextDelta(t *testing.T) {
	ev := StreamEvent{
		Type:           EventOutputTextDelta,
		SequenceNumber: 3,
		ItemID:         "msg_1",
		OutputIndex:    0,
		ContentIndex:   0,
		Delta:          "Hi",
	}
	data, _ := json.Marshal(ev)
	var generic map[string]any
	json.Unmarshal(data, &generic)
	if generic["delta"] != "Hi" {
		t.Errorf("delta = %v, want Hi", generic["delta"])
	}
	if _, ok := generic["item"]; ok {
		t.Error("text.delta event should not carry an item object")
	}
}

func TestSequenceNumbersMonotonic(t *testing.T) {
	events := []StreamEvent{
		{Type: EventResponseCreated, SequenceNumber: 0},
		{Type: EventOutputItemAdded, SequenceNumber: 1},
		{Type: EventOutputTextDelta, SequenceNumber: 2},
	}
	for i := 1; i < len(events); i++ {
		if events[i].SequenceNumber <= events[i-1].SequenceNumber {
			t.Errorf("sequence number %d did not increase from %d", events[i].SequenceNumber, events[i-1].SequenceNumber)
		}
	}
}
