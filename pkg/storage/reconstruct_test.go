package storage

import (
	"testing"

	"github.com/mrorigo/ors-proxy/pkg/api"
)

func TestReconstructOutputItems_Message(t *testing.T) {
	events := []api.StreamEvent{
		{Type: api.EventResponseCreated, ResponseID: "resp_1"},
		{Type: api.EventOutputItemAdded, Item: &api.Item{ID: "msg_1", Type: api.ItemTypeMessage}},
		{Type: api.EventContentPartAdded, ItemID: "msg_1"},
		{Type: api.EventOutputTextDelta, ItemID: "msg_1", Delta: "Hello "},
		{Type: api.EventOutputTextDelta, ItemID: "msg_1", Delta: "world"},
		{Type: api.EventContentPartDone, ItemID: "msg_1"},
		{Type: api.EventOutputItemDone, Item: &api.Item{ID: "msg_1", Type: api.ItemTypeMessage, Status: api.ItemStatusCompleted}},
	}

	items := ReconstructOutputItems(events)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Type != api.ItemTypeMessage || item.Message.Role != api.RoleAssistant {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Message.Content[0].Text != "Hello world" {
		t.Fatalf("content = %q", item.Message.Content[0].Text)
	}
}

func TestReconstructOutputItems_FunctionCall(t *testing.T) {
	events := []api.StreamEvent{
		{Type: api.EventResponseCreated, ResponseID: "resp_1"},
		{Type: api.EventOutputItemAdded, Item: &api.Item{
			ID: "fc_1", Type: api.ItemTypeFunctionCall,
			FunctionCall: &api.FunctionCallData{CallID: "call_1", Name: "get_weather"},
		}},
		{Type: api.EventFunctionCallArgsDelta, ItemID: "fc_1", Delta: `{"city":`},
		{Type: api.EventFunctionCallArgsDelta, ItemID: "fc_1", Delta: `"berlin"}`},
		{Type: api.EventOutputItemDone, Item: &api.Item{ID: "fc_1", Type: api.ItemTypeFunctionCall, Status: api.ItemStatusCompleted}},
	}

	items := ReconstructOutputItems(events)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Type != api.ItemTypeFunctionCall {
		t.Fatalf("unexpected item type: %q", item.Type)
	}
	if item.FunctionCall.CallID != "call_1" || item.FunctionCall.Name != "get_weather" {
		t.Fatalf("unexpected function call: %+v", item.FunctionCall)
	}
	if item.FunctionCall.Arguments != `{"city":"berlin"}` {
		t.Fatalf("arguments = %q", item.FunctionCall.Arguments)
	}
}

func TestReconstructOutputItems_OrderPreserved(t *testing.T) {
	events := []api.StreamEvent{
		{Type: api.EventOutputItemAdded, Item: &api.Item{ID: "msg_1", Type: api.ItemTypeMessage}},
		{Type: api.EventOutputTextDelta, ItemID: "msg_1", Delta: "hi"},
		{Type: api.EventOutputItemDone, Item: &api.Item{ID: "msg_1", Type: api.ItemTypeMessage}},
		{Type: api.EventOutputItemAdded, Item: &api.Item{ID: "fc_1", Type: api.ItemTypeFunctionCall, FunctionCall: &api.FunctionCallData{CallID: "call_1", Name: "x"}}},
		{Type: api.EventFunctionCallArgsDelta, ItemID: "fc_1", Delta: "{}"},
		{Type: api.EventOutputItemDone, Item: &api.Item{ID: "fc_1", Type: api.ItemTypeFunctionCall}},
	}

	items := ReconstructOutputItems(events)
	if len(items) != 2 || items[0].Type != api.ItemTypeMessage || items[1].Type != api.ItemTypeFunctionCall {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestReconstructOutputItems_EmptyEventsProducesNoItems(t *testing.T) {
	items := ReconstructOutputItems(nil)
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}
