package framemux

import "strings"

// Commands understood by the perception unit.
const (
	CommandFormatJSON = "FORMAT jsonl"
	CommandStreamOn   = "STREAM on"
	CommandStreamOff  = "STREAM off"
)

// Line classes.
const (
	LineFrame   = "frame"
	LineAck     = "ack"
	LineError   = "error"
	LineUnknown = "unknown"
)

// ClassifyLine returns the class of one line read from the unit. Frames are
// JSON objects; acknowledgements and errors are plain text replies to
// commands.
func ClassifyLine(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "{"):
		return LineFrame
	case strings.HasPrefix(line, "OK"):
		return LineAck
	case strings.HasPrefix(line, "ERR"):
		return LineError
	default:
		return LineUnknown
	}
}
