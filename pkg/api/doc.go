// Package api defines the wire types of the structured responses protocol
// (ORS) that this proxy exposes to clients: input items, content parts, the
// request body accepted by POST /v1/responses, streaming events, and
// structured errors. The package performs no I/O.
//
// Items and events are tagged unions dispatched on an on-wire discriminator
// field (Item.Type, StreamEvent.Type), with custom MarshalJSON/UnmarshalJSON
// methods on Item producing the flat wire shape. Callers should dispatch on
// the Type field, never by testing which pointer field is populated.
package api
