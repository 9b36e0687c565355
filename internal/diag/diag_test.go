package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/hpungsan/qdpx/internal/errors"
)

func TestCollector(t *testing.T) {
	var c Collector
	c.Report(Record{Kind: UnknownElement, Message: "a"})
	c.Report(Record{Kind: UnknownAttribute, Message: "b"})
	c.Report(Record{Kind: UnknownElement, Message: "c"})

	if got := len(c.Records()); got != 3 {
		t.Fatalf("len(Records()) = %d, want 3", got)
	}
	if got := c.Count(UnknownElement); got != 2 {
		t.Errorf("Count(UnknownElement) = %d, want 2", got)
	}

	// Records returns a copy.
	recs := c.Records()
	recs[0].Message = "changed"
	if c.Records()[0].Message != "a" {
		t.Error("Records() should not expose internal slice")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	OrDiscard(nil).Report(Record{}) // must not panic

	var c Collector
	if OrDiscard(&c) != Sink(&c) {
		t.Error("OrDiscard should return the given sink")
	}
}

func TestNewLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewLogSink(logger).Report(Record{
		Location: errors.Location{Path: "/Project/Foo", Line: 3, Column: 4},
		Kind:     UnknownElement,
		Message:  "skipped unknown element <Foo>",
	})

	out := buf.String()
	for _, want := range []string{"level=WARN", "unknown_element", "/Project/Foo (3:4)", "skipped unknown element"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestTee(t *testing.T) {
	var a, b Collector
	Tee(&a, nil, &b).Report(Record{Kind: EmptySources})

	if a.Count(EmptySources) != 1 || b.Count(EmptySources) != 1 {
		t.Error("Tee should forward to every non-nil sink")
	}
}
