// Package translate maps ORS input items onto Legacy chat messages
// (component C).
package translate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/legacy"
)

// ToLegacyMessages converts a request's input items into the Legacy message
// list posted to the upstream. The mapping per item kind:
//
//   - message: role is mapped (developer -> "system", user/assistant pass
//     through unchanged); text content parts are concatenated; input_image
//     parts are not representable on the Legacy wire and are dropped.
//   - function_call: becomes an assistant message with a single tool call
//     carrying the stringified arguments.
//   - function_call_output: becomes a "tool" role message carrying the
//     output text, tagged with the originating call id.
func ToLegacyMessages(logger *slog.Logger, items []api.Item) ([]legacy.ChatMessage, error) {
	messages := make([]legacy.ChatMessage, 0, len(items))

	for _, item := range items {
		switch item.Type {
		case api.ItemTypeMessage:
			m, err := translateMessage(logger, item.Message)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)

		case api.ItemTypeFunctionCall:
			m, err := translateFunctionCall(item.FunctionCall)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)

		case api.ItemTypeFunctionCallOutput:
			m, err := translateFunctionCallOutput(item.FunctionCallOutput)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)

		default:
			return nil, fmt.Errorf("translate: unsupported item type %q", item.Type)
		}
	}

	return messages, nil
}

func legacyRole(role api.Role) string {
	if role == api.RoleDeveloper {
		return "system"
	}
	return string(role)
}

func translateMessage(logger *slog.Logger, data *api.MessageData) (legacy.ChatMessage, error) {
	if data == nil {
		return legacy.ChatMessage{}, fmt.Errorf("translate: message item missing message data")
	}

	var text strings.Builder
	for _, part := range data.Content {
		switch part.Type {
		case api.ContentPartInputText, api.ContentPartOutputText:
			text.WriteString(part.Text)
		case api.ContentPartInputImage:
			logger.Debug("translate: dropping input_image content part, not representable on the legacy wire")
		default:
			logger.Debug("translate: dropping unsupported content part", "type", part.Type)
		}
	}

	content, err := json.Marshal(text.String())
	if err != nil {
		return legacy.ChatMessage{}, err
	}

	return legacy.ChatMessage{
		Role:    legacyRole(data.Role),
		Content: content,
	}, nil
}

func translateFunctionCall(data *api.FunctionCallData) (legacy.ChatMessage, error) {
	if data == nil {
		return legacy.ChatMessage{}, fmt.Errorf("translate: function_call item missing function call data")
	}

	arguments := data.Arguments
	if arguments == "" {
		arguments = "{}"
	}

	return legacy.ChatMessage{
		Role: "assistant",
		ToolCalls: []legacy.ToolCall{{
			ID:   data.CallID,
			Type: "function",
			Function: legacy.ToolCallFunc{
				Name:      data.Name,
				Arguments: arguments,
			},
		}},
	}, nil
}

func translateFunctionCallOutput(data *api.FunctionCallOutputData) (legacy.ChatMessage, error) {
	if data == nil {
		return legacy.ChatMessage{}, fmt.Errorf("translate: function_call_output item missing output data")
	}

	content, err := json.Marshal(data.Output)
	if err != nil {
		return legacy.ChatMessage{}, err
	}

	return legacy.ChatMessage{
		Role:       "tool",
		Content:    content,
		ToolCallID: data.CallID,
	}, nil
}
