package buttons

import "strings"

// EmptyBody is the body used for batch posts whose text section is empty.
const EmptyBody = "(empty)"

// batchSeparator on a line of its own separates posts in a multipost batch.
const batchSeparator = "---"

var buttonMarkers = []string{"http", "t.me", cellSeparator, "popup:", "alert:", "share:"}

// IsButtonLine reports whether a line of freeform post text looks like button markup.
func IsButtonLine(line string) bool {
	if !strings.Contains(line, actionMarker) {
		return false
	}
	for _, m := range buttonMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// SplitBody separates freeform post text into a body and a button section.
// Every line from the first button-like line onward belongs to the buttons,
// so a body line that mentions " - " together with a URL ends the body early.
func SplitBody(text string) (body, buttons string) {
	var bodyLines, buttonLines []string
	started := false
	for _, line := range splitLines(text) {
		if !started && IsButtonLine(line) {
			started = true
		}
		if started {
			buttonLines = append(buttonLines, line)
		} else {
			bodyLines = append(bodyLines, line)
		}
	}
	return strings.TrimSpace(strings.Join(bodyLines, "\n")),
		strings.TrimSpace(strings.Join(buttonLines, "\n"))
}

// SplitBatch splits multipost input into per-post chunks on lines that
// contain only "---". Empty chunks are dropped.
func SplitBatch(text string) []string {
	var (
		parts   []string
		current []string
	)
	flush := func() {
		if part := strings.TrimSpace(strings.Join(current, "\n")); part != "" {
			parts = append(parts, part)
		}
		current = current[:0]
	}
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == batchSeparator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return parts
}

// PayloadKind classifies the callback payload of a pressed post button.
type PayloadKind int

// Payload kinds.
const (
	PayloadEcho PayloadKind = iota
	PayloadNoop
	PayloadAlert
)

// Payload is a decoded post-button press.
type Payload struct {
	Kind PayloadKind
	Text string
}

// ParsePayload decodes the callback data of a button produced by Parse.
// "popup:" and "alert:" payloads become alerts carrying the text after the colon.
func ParsePayload(data string) Payload {
	switch {
	case data == Noop:
		return Payload{Kind: PayloadNoop}
	case strings.HasPrefix(data, "popup:"), strings.HasPrefix(data, "alert:"):
		_, text, _ := strings.Cut(data, ":")
		return Payload{Kind: PayloadAlert, Text: strings.TrimSpace(text)}
	default:
		return Payload{Kind: PayloadEcho, Text: data}
	}
}
