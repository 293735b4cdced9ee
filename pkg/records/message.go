package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
)

// Message is one captured event from the replication pipeline's output stream.
type Message struct {
	Action string `json:"action" yaml:"action"`
	Stream string `json:"stream,omitempty" yaml:"stream,omitempty"`
	Data   Record `json:"data,omitempty" yaml:"data,omitempty"`
}

// Output is the captured output of one pipeline run, grouped by stream.
type Output struct {
	messages map[string][]Message
}

// NewOutput returns an empty Output.
func NewOutput() *Output {
	return &Output{messages: make(map[string][]Message)}
}

// Add appends a message to its stream. Messages without a stream (state
// messages, for example) are kept under the empty stream name.
func (o *Output) Add(msg Message) {
	o.messages[msg.Stream] = append(o.messages[msg.Stream], msg)
}

// Streams returns the names of streams that emitted at least one message.
func (o *Output) Streams() []string {
	var names []string
	for name := range o.messages {
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Messages returns every captured message of the stream in emission order.
func (o *Output) Messages(stream string) []Message {
	return o.messages[stream]
}

// Upserts returns the data of the stream's insert/update messages only.
// Deletions, version activations and every other action are excluded.
func (o *Output) Upserts(stream string) Collection {
	var out Collection
	for _, msg := range o.messages[stream] {
		if msg.Action == constants.ActionUpsert {
			out = append(out, msg.Data)
		}
	}
	return out
}

// Counts returns the number of messages per action for the stream.
func (o *Output) Counts(stream string) map[string]int {
	counts := make(map[string]int)
	for _, msg := range o.messages[stream] {
		counts[msg.Action]++
	}
	return counts
}

// singerLine covers both Singer tap messages and already-captured target
// messages, which carry an action and data instead of a type and record.
type singerLine struct {
	Type   string `json:"type"`
	Stream string `json:"stream"`
	Record Record `json:"record"`
	Action string `json:"action"`
	Data   Record `json:"data"`
}

// ParseMessage decodes one line of pipeline output. Singer RECORD messages
// become upserts; SCHEMA, STATE and ACTIVATE_VERSION keep their own action.
// Numbers are decoded as json.Number so large identifiers keep full precision.
func ParseMessage(line []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var raw singerLine
	if err := dec.Decode(&raw); err != nil {
		return Message{}, err
	}

	if raw.Action != "" {
		return Message{Action: strings.ToLower(raw.Action), Stream: raw.Stream, Data: raw.Data}, nil
	}

	switch strings.ToUpper(raw.Type) {
	case "RECORD":
		return Message{Action: constants.ActionUpsert, Stream: raw.Stream, Data: raw.Record}, nil
	case "SCHEMA":
		return Message{Action: constants.ActionSchema, Stream: raw.Stream}, nil
	case "STATE":
		return Message{Action: constants.ActionState}, nil
	case "ACTIVATE_VERSION":
		return Message{Action: constants.ActionActivateVersion, Stream: raw.Stream}, nil
	case "":
		return Message{}, errors.New("message has neither a type nor an action")
	default:
		return Message{}, fmt.Errorf("unknown message type %q", raw.Type)
	}
}

// ReadOutput reads newline-delimited pipeline output. Blank lines are skipped;
// the first malformed line aborts the read with its line number.
func ReadOutput(r io.Reader, name string) (*Output, error) {
	out := NewOutput()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), constants.MaxScanTokenSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := ParseMessage(line)
		if err != nil {
			return nil, &errors.ParseError{
				Format:  "jsonl",
				File:    name,
				Line:    lineNo,
				Message: err.Error(),
				Err:     err,
			}
		}
		out.Add(msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return out, nil
}
