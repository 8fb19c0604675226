package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StreamPartType identifies the payload carried by a stream part line.
type StreamPartType byte

const (
	StreamPartText  StreamPartType = '0' // Model text delta (JSON string)
	StreamPartData  StreamPartType = '2' // Side-channel values (JSON array)
	StreamPartError StreamPartType = '3' // Error message (JSON string)
)

// String returns the single-character code of the part type.
func (t StreamPartType) String() string {
	return string(rune(t))
}

// StreamPart is a decoded line of a streamed response body.
type StreamPart struct {
	Type StreamPartType

	// Text is set for text and error parts.
	Text string

	// Data is set for data parts.
	Data []json.RawMessage
}

// FormatTextPart encodes a text delta as a stream part line.
func FormatTextPart(text string) []byte {
	return formatPart(StreamPartText, text)
}

// FormatErrorPart encodes an error message as a stream part line.
func FormatErrorPart(message string) []byte {
	return formatPart(StreamPartError, message)
}

// FormatDataPart encodes side-channel values as a single stream part line.
// The values must already be valid JSON.
func FormatDataPart(values []json.RawMessage) []byte {
	if values == nil {
		values = []json.RawMessage{}
	}
	return formatPart(StreamPartData, values)
}

func formatPart(t StreamPartType, v any) []byte {
	// Marshal cannot fail for strings and pre-validated raw messages.
	payload, _ := json.Marshal(v)

	buf := make([]byte, 0, len(payload)+3)
	buf = append(buf, byte(t), ':')
	buf = append(buf, payload...)
	return append(buf, '\n')
}

// ParseStreamPart decodes a single stream part line. A trailing newline is
// accepted but not required.
func ParseStreamPart(line []byte) (StreamPart, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) < 2 || line[1] != ':' {
		return StreamPart{}, fmt.Errorf("invalid stream part %q: missing type prefix", line)
	}

	part := StreamPart{Type: StreamPartType(line[0])}
	payload := line[2:]

	switch part.Type {
	case StreamPartText, StreamPartError:
		if err := json.Unmarshal(payload, &part.Text); err != nil {
			return StreamPart{}, fmt.Errorf("invalid %s part payload: %w", part.Type, err)
		}
	case StreamPartData:
		if err := json.Unmarshal(payload, &part.Data); err != nil {
			return StreamPart{}, fmt.Errorf("invalid data part payload: %w", err)
		}
	default:
		return StreamPart{}, fmt.Errorf("unknown stream part type %q", part.Type.String())
	}

	return part, nil
}
