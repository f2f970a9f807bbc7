// Package stacktrace trims runtime stack dumps down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// Frames returns the file:line locations under an internal/ directory, in
// stack order. When none match, the whole stack is returned as one entry so
// nothing is lost from logs.
func Frames(stack []byte) []string {
	var frames []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ".go:") {
			continue
		}

		loc, _, _ := strings.Cut(line, " +0x")
		_, rel, ok := strings.Cut(loc, marker)
		if !ok {
			continue
		}
		frames = append(frames, "internal/"+rel)
	}

	if len(frames) == 0 && len(stack) > 0 {
		return []string{string(stack)}
	}
	return frames
}
