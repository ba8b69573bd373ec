package legacy

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// dataPrefix is the literal SSE field prefix Legacy uses for every event
// line; anything else on the wire (comments, other fields) is not part of
// this protocol and is ignored.
const dataPrefix = "data: "

// doneMarker is the sentinel payload Legacy sends to terminate a stream.
const doneMarker = "[DONE]"

// ParseLine interprets one complete SSE line already reassembled by
// pkg/codec. It returns the decoded chunk, or done=true if the line was the
// terminal [DONE] marker. Lines that do not carry the "data: " prefix are
// not part of this protocol and are silently ignored (chunk is nil, done is
// false). Malformed JSON payloads are logged and skipped rather than
// treated as fatal, so one bad chunk does not abort an otherwise healthy
// stream.
func ParseLine(logger *slog.Logger, line string) (chunk *ChatCompletionChunk, done bool) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return nil, false
	}

	if payload == doneMarker {
		return nil, true
	}

	var c ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		logger.Warn("legacy: skipping malformed chunk", "error", err, "payload", payload)
		return nil, false
	}
	return &c, false
}
