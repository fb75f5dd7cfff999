package transcribe

import (
	"strings"
	"testing"
)

func TestGroup_SplitsOnPeriods(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "Hello"},
		{Start: 1, End: 2, Text: "world."},
		{Start: 2, End: 3, Text: "Next"},
	}

	blocks, total := Group(segments)

	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if blocks[0].Text != "Hello world." {
		t.Errorf("blocks[0].Text = %q, want %q", blocks[0].Text, "Hello world.")
	}
	if blocks[0].Start != 0 || blocks[0].End != 2 {
		t.Errorf("blocks[0] span = [%v, %v], want [0, 2]", blocks[0].Start, blocks[0].End)
	}
	if blocks[1].Text != "Next" {
		t.Errorf("blocks[1].Text = %q, want %q", blocks[1].Text, "Next")
	}
	if blocks[1].Start != 2 || blocks[1].End != 3 {
		t.Errorf("blocks[1] span = [%v, %v], want [2, 3]", blocks[1].Start, blocks[1].End)
	}
	if total != 3 {
		t.Errorf("total = %v, want 3", total)
	}
}

func TestGroup_Empty(t *testing.T) {
	blocks, total := Group(nil)
	if len(blocks) != 0 {
		t.Errorf("len(blocks) = %d, want 0", len(blocks))
	}
	if total != 0 {
		t.Errorf("total = %v, want 0", total)
	}
}

func TestGroup_SingleUnpunctuatedSegment(t *testing.T) {
	segments := []Segment{{Start: 1.5, End: 4.25, Text: "no period here"}}

	blocks, total := Group(segments)

	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if blocks[0].Start != 1.5 || blocks[0].End != 4.25 {
		t.Errorf("block span = [%v, %v], want [1.5, 4.25]", blocks[0].Start, blocks[0].End)
	}
	if total != 2.75 {
		t.Errorf("total = %v, want 2.75", total)
	}
}

func TestGroup_NoPeriodsProducesOneBlock(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "one"},
		{Start: 1, End: 2, Text: "two"},
		{Start: 2, End: 5, Text: "three"},
	}

	blocks, _ := Group(segments)

	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if blocks[0].Text != "one two three" {
		t.Errorf("text = %q, want %q", blocks[0].Text, "one two three")
	}
}

func TestGroup_TrimsTrailingSpaceBeforePeriodCheck(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "done. "},
		{Start: 1, End: 2, Text: "more"},
	}

	blocks, _ := Group(segments)

	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
}

func TestGroup_PreservesAllText(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b."},
		{Start: 2, End: 3, Text: "c"},
		{Start: 3, End: 4, Text: "d."},
		{Start: 4, End: 5, Text: "e"},
	}

	blocks, total := Group(segments)

	var joined []string
	for _, b := range blocks {
		joined = append(joined, b.Text)
	}
	if got := strings.Join(joined, " "); got != "a b. c d. e" {
		t.Errorf("joined block text = %q, want %q", got, "a b. c d. e")
	}

	var sum float64
	for _, b := range blocks {
		sum += b.End - b.Start
	}
	if sum != total {
		t.Errorf("total = %v, want sum of block durations %v", total, sum)
	}
}
