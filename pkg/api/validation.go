package api

import "fmt"

// ValidateRequest checks a CreateResponseRequest for the structural minimum
// the orchestrator needs before translating and forwarding it: a model name
// and at least one input item, each of a recognized type.
func ValidateRequest(req *CreateResponseRequest) *APIError {
	if req.Model == "" {
		return NewInvalidRequestError("model is required")
	}
	if len(req.Input) == 0 {
		return NewInvalidRequestError("input must contain at least one item")
	}
	for i, item := range req.Input {
		if err := ValidateItem(&item); err != nil {
			err.Message = fmt.Sprintf("input[%d]: %s", i, err.Message)
			return err
		}
	}
	return nil
}

// ValidateItem checks an Item for structural validity: a recognized type
// with exactly its corresponding type-specific field populated.
func ValidateItem(item *Item) *APIError {
	switch item.Type {
	case ItemTypeMessage:
		if item.Message == nil {
			return NewInvalidRequestError("message field required for type \"message\"")
		}
	case ItemTypeFunctionCall:
		if item.FunctionCall == nil {
			return NewInvalidRequestError("function_call field required for type \"function_call\"")
		}
	case ItemTypeFunctionCallOutput:
		if item.FunctionCallOutput == nil {
			return NewInvalidRequestError("function_call_output field required for type \"function_call_output\"")
		}
	default:
		return NewInvalidRequestError(fmt.Sprintf("unrecognized item type %q", item.Type))
	}
	return nil
}

// ResolveStore returns the effective store setting. The proxy always
// stores regardless of the client-supplied value (spec §6); this helper
// exists so callers can still surface the client's stated intent in logs.
func ResolveStore(req *CreateResponseRequest) bool {
	if req.Store != nil {
		return *req.Store
	}
	return true
}
