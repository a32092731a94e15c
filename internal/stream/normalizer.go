package stream

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// Outcome describes how an upstream stream ended.
type Outcome int

const (
	// OutcomeCompleted means the upstream reached EOF.
	OutcomeCompleted Outcome = iota
	// OutcomeInterrupted means reading the upstream failed mid-stream.
	OutcomeInterrupted
	// OutcomeAborted means the client went away.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

// Result is what a Normalizer observed over one upstream stream.
type Result struct {
	// Text is the concatenation of every generated fragment, in arrival order.
	Text    string
	Outcome Outcome
	// Frames counts lines forwarded to the client.
	Frames int
	Err    error
}

// Normalizer rewrites upstream SSE lines into the canonical shape while
// accumulating generated text.
type Normalizer struct {
	// OnFirstLine, if set, is called once before the first line is forwarded.
	OnFirstLine func()
}

// Pipe copies r to w line by line until r ends, the context is cancelled or
// w fails. Each line is forwarded as soon as it has been read.
func (n *Normalizer) Pipe(ctx context.Context, r io.Reader, w Writer) Result {
	br := bufio.NewReader(r)
	var acc strings.Builder
	res := Result{}

	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			out, frag := NormalizeLine(strings.TrimRight(line, "\r\n"))
			acc.WriteString(frag)
			if res.Frames == 0 && n.OnFirstLine != nil {
				n.OnFirstLine()
			}
			if err := w.WriteLine(out); err != nil {
				res.Text = acc.String()
				res.Outcome = OutcomeAborted
				res.Err = err
				return res
			}
			res.Frames++
		}
		if readErr == nil {
			continue
		}

		res.Text = acc.String()
		switch {
		case errors.Is(readErr, io.EOF):
			res.Outcome = OutcomeCompleted
		case ctx.Err() != nil:
			res.Outcome = OutcomeAborted
			res.Err = ctx.Err()
		default:
			res.Outcome = OutcomeInterrupted
			res.Err = readErr
		}
		return res
	}
}

// NormalizeLine maps one upstream line (without its newline) to the line to
// forward and the text fragment it carries.
//
// Blank lines become empty separators. The sentinel, non-data lines and
// payloads that are not JSON objects are returned unchanged. Object payloads
// gain whichever of content and text they lack.
func NormalizeLine(line string) (string, string) {
	if strings.TrimSpace(line) == "" {
		return "", ""
	}
	payload, ok := DataPayload(line)
	if !ok || payload == DoneSentinel {
		return line, ""
	}
	fields, ok := decodeObject(payload)
	if !ok {
		return line, ""
	}

	content, _ := fields["content"].(string)
	text, _ := fields["text"].(string)
	if content != "" && text == "" {
		fields["text"] = content
	}
	if text != "" && content == "" {
		fields["content"] = text
	}

	data, err := encodeJSON(fields)
	if err != nil {
		return line, ""
	}
	return DataPrefix + " " + string(data), fragment(fields)
}
