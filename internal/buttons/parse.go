// Package buttons implements the line-oriented inline button mini-language:
//
//	line   := cell ( "&&" cell )*
//	cell   := label " - " action | label
//	action := url | "popup:" text | "alert:" text | token
//
// Every non-blank line becomes one keyboard row.
package buttons

import (
	"strings"
	"unicode/utf8"
)

// MaxLen is the longest label or callback payload, in bytes, the platform accepts.
const MaxLen = 64

// Noop is the callback payload of a button declared without an action.
const Noop = "noop"

const (
	cellSeparator = "&&"
	actionMarker  = " - "
)

// Kind is the action a button performs when pressed.
type Kind int

// Button kinds.
const (
	KindCallback Kind = iota
	KindURL
)

func (k Kind) String() string {
	if k == KindURL {
		return "url"
	}
	return "callback"
}

// Button is a single parsed inline button. Value holds the URL for KindURL
// and the callback payload for KindCallback.
type Button struct {
	Label string
	Kind  Kind
	Value string
}

// Parse turns button markup into rows of buttons. It returns nil when the
// input yields no rows. Parse never fails: malformed cells degrade to no-op
// buttons.
func Parse(text string) [][]Button {
	var rows [][]Button
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var row []Button
		for _, cell := range strings.Split(line, cellSeparator) {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			row = append(row, parseCell(cell))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func parseCell(cell string) Button {
	idx := strings.Index(cell, actionMarker)
	if idx < 0 {
		return Button{Label: truncate(cell, MaxLen), Kind: KindCallback, Value: Noop}
	}

	// cell is trimmed, so both sides of the marker are non-empty.
	label := truncate(strings.TrimSpace(cell[:idx]), MaxLen)
	action := strings.TrimSpace(cell[idx+len(actionMarker):])

	if isURL(action) {
		return Button{Label: label, Kind: KindURL, Value: action}
	}
	return Button{Label: label, Kind: KindCallback, Value: truncate(action, MaxLen)}
}

func isURL(action string) bool {
	for _, prefix := range []string{"http://", "https://", "tg://"} {
		if strings.HasPrefix(action, prefix) {
			return true
		}
	}
	return false
}

// Format serializes rows back into button markup. Parsing the result yields
// the same rows for labels that contain neither "&&" nor " - ".
func Format(rows [][]Button) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, btn := range row {
			if btn.Kind == KindCallback && btn.Value == Noop {
				cells = append(cells, btn.Label)
				continue
			}
			cells = append(cells, btn.Label+actionMarker+btn.Value)
		}
		lines = append(lines, strings.Join(cells, " "+cellSeparator+" "))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
// Invalid bytes become U+FFFD first, so a non-empty s never truncates to "".
// Whitespace exposed by the cut is trimmed.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
