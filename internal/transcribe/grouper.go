// Package transcribe turns raw speech-recognition timing segments into
// punctuation-delimited narration blocks, and drives the external speech
// engine that produces those segments.
package transcribe

import "strings"

// Segment is one recognized speech unit as emitted by the speech engine.
// Segments arrive ordered by time and are not necessarily full sentences.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Block is a narration block: one or more consecutive segments whose last
// segment ends with a period, with the constituent texts space-joined.
type Block struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Group folds ordered segments into narration blocks. A block closes when
// the current segment's trimmed text ends with a period; trailing speech
// without one becomes a final block. The returned total is the sum of the
// emitted blocks' durations.
func Group(segments []Segment) ([]Block, float64) {
	blocks := []Block{}
	var (
		buffer    strings.Builder
		start     float64
		end       float64
		total     float64
		collected bool
	)

	for _, seg := range segments {
		if !collected {
			start = seg.Start
			collected = true
		}
		if buffer.Len() > 0 {
			buffer.WriteByte(' ')
		}
		buffer.WriteString(seg.Text)
		end = seg.End

		if strings.HasSuffix(strings.TrimSpace(seg.Text), ".") {
			blocks = append(blocks, Block{Start: start, End: end, Text: strings.TrimSpace(buffer.String())})
			total += end - start
			buffer.Reset()
			collected = false
		}
	}

	if buffer.Len() > 0 {
		blocks = append(blocks, Block{Start: start, End: end, Text: strings.TrimSpace(buffer.String())})
		total += end - start
	}

	return blocks, total
}
