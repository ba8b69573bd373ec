package storage

import "github.com/mrorigo/ors-proxy/pkg/api"

// itemState accumulates one output item's content across the events that
// describe it, so the item can be persisted as a single ORS item once the
// stream for it ends.
type itemState struct {
	itemType  api.ItemType
	role      api.Role
	text      string
	callID    string
	name      string
	arguments string
}

// ReconstructOutputItems rebuilds the ordered list of ORS output items a
// transcoder's event stream represents, by grouping events by item id and
// accumulating each item's delta events. It reconstructs both message and
// function-call items (see DESIGN.md's "Open question resolutions" #2);
// events for any other item id are ignored.
func ReconstructOutputItems(events []api.StreamEvent) []api.Item {
	states := make(map[string]*itemState)
	var order []string

	for _, ev := range events {
		switch ev.Type {
		case api.EventOutputItemAdded:
			if ev.Item == nil {
				continue
			}
			state := &itemState{itemType: ev.Item.Type, role: api.RoleAssistant}
			if ev.Item.FunctionCall != nil {
				state.callID = ev.Item.FunctionCall.CallID
				state.name = ev.Item.FunctionCall.Name
			}
			states[ev.Item.ID] = state
			order = append(order, ev.Item.ID)

		case api.EventOutputTextDelta:
			if state, ok := states[ev.ItemID]; ok {
				state.text += ev.Delta
			}

		case api.EventFunctionCallArgsDelta:
			if state, ok := states[ev.ItemID]; ok {
				state.arguments += ev.Delta
			}
		}
	}

	items := make([]api.Item, 0, len(order))
	for _, id := range order {
		state := states[id]
		item := api.Item{ID: id, Type: state.itemType, Status: api.ItemStatusCompleted}

		switch state.itemType {
		case api.ItemTypeFunctionCall:
			arguments := state.arguments
			if arguments == "" {
				arguments = "{}"
			}
			item.FunctionCall = &api.FunctionCallData{
				CallID:    state.callID,
				Name:      state.name,
				Arguments: arguments,
			}
		default:
			item.Type = api.ItemTypeMessage
			item.Message = &api.MessageData{
				Role:    state.role,
				Content: []api.ContentPart{{Type: api.ContentPartOutputText, Text: state.text}},
			}
		}

		items = append(items, item)
	}

	return items
}
