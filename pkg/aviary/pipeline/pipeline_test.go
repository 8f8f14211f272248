package pipeline

import (
	"errors"
	"testing"

	"github.com/perchlab/aviary/pkg/aviary/flatten"
	"github.com/perchlab/aviary/pkg/aviary/keyword"
	"github.com/perchlab/aviary/pkg/aviary/tweet"
)

type memSink struct {
	records []flatten.Record
	users   []flatten.UserSnapshot
	err     error
}

func (s *memSink) Write(rec flatten.Record, user flatten.UserSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	s.users = append(s.users, user)
	return nil
}

func mustDecode(t *testing.T, line string) tweet.Raw {
	t.Helper()
	raw, err := tweet.Decode([]byte(line))
	if err != nil {
		t.Fatalf("Decode(%q): %v", line, err)
	}
	return raw
}

func mustFilter(t *testing.T, rule keyword.Rule) *keyword.Filter {
	t.Helper()
	f, err := keyword.New(rule)
	if err != nil {
		t.Fatalf("keyword.New: %v", err)
	}
	return f
}

func TestProcessEmitsRecordAndUser(t *testing.T) {
	sink := &memSink{}
	stats, err := New(nil).Process(mustDecode(t, `{"id_str": "1", "user": {"id_str": "u1"}}`), sink)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stats.Written != 1 || stats.Dropped != 0 {
		t.Errorf("stats = %+v, want 1 written, 0 dropped", stats)
	}
	if len(sink.records) != 1 || len(sink.users) != 1 {
		t.Fatalf("sink got %d records, %d users; want 1 each", len(sink.records), len(sink.users))
	}
	if sink.records[0]["id_str"] != "1" {
		t.Errorf("record id_str = %v, want 1", sink.records[0]["id_str"])
	}
	if sink.users[0]["user.id_str"] != "u1" {
		t.Errorf("user row id = %v, want u1", sink.users[0]["user.id_str"])
	}
}

func TestProcessWorklistOrder(t *testing.T) {
	sink := &memSink{}
	raw := mustDecode(t, `{
		"id_str": "outer",
		"retweeted_status": {"id_str": "rt"},
		"quoted_status": {"id_str": "qt"}
	}`)
	if _, err := New(nil).Process(raw, sink); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var ids []string
	for _, rec := range sink.records {
		if id, ok := rec["id_str"].(string); ok {
			ids = append(ids, id)
		}
	}
	want := []string{"outer", "rt", "qt"}
	if len(ids) != len(want) {
		t.Fatalf("records = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("record %d = %q, want %q (retweeted before quoted)", i, ids[i], want[i])
		}
	}
}

func TestProcessNestedReferences(t *testing.T) {
	// A quote of a retweet: the innermost tweet still surfaces.
	sink := &memSink{}
	raw := mustDecode(t, `{
		"id_str": "a",
		"quoted_status": {"id_str": "b", "retweeted_status": {"id_str": "c"}}
	}`)
	if _, err := New(nil).Process(raw, sink); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(sink.records) != 3 {
		t.Fatalf("records = %d, want 3 (outer, quote, inner retweet)", len(sink.records))
	}
	if sink.records[2]["id_str"] != "c" {
		t.Errorf("innermost record id = %v, want c", sink.records[2]["id_str"])
	}
}

func TestProcessEmbeddedIndependentClassification(t *testing.T) {
	// The outer tweet matches; the embedded retweet does not and is
	// dropped on its own account.
	f := mustFilter(t, keyword.Rule{
		Keywords: []string{"climate"},
		Fields:   []keyword.Field{keyword.FieldText},
		Retain:   true,
	})
	sink := &memSink{}
	raw := mustDecode(t, `{
		"id_str": "outer",
		"text": "about climate",
		"retweeted_status": {"id_str": "rt", "text": "something else"}
	}`)
	stats, err := New(f).Process(raw, sink)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stats.Written != 1 || stats.Dropped != 1 {
		t.Errorf("stats = %+v, want 1 written, 1 dropped", stats)
	}
	if len(sink.records) != 1 || sink.records[0]["id_str"] != "outer" {
		t.Errorf("only the outer record should be written, got %v", sink.records)
	}
}

func TestProcessDroppedTweetNoRecursion(t *testing.T) {
	// A dropped tweet is not flattened, so its references never enter
	// the worklist even if they would match.
	f := mustFilter(t, keyword.Rule{
		Keywords: []string{"climate"},
		Fields:   []keyword.Field{keyword.FieldText},
		Retain:   true,
	})
	sink := &memSink{}
	raw := mustDecode(t, `{
		"id_str": "outer",
		"text": "irrelevant",
		"retweeted_status": {"id_str": "rt", "text": "about climate"}
	}`)
	stats, err := New(f).Process(raw, sink)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stats.Written != 0 || stats.Dropped != 1 {
		t.Errorf("stats = %+v, want nothing written", stats)
	}
	if len(sink.records) != 0 {
		t.Errorf("records = %v, want none", sink.records)
	}
}

func TestProcessFlagColumn(t *testing.T) {
	f := mustFilter(t, keyword.Rule{
		Keywords:   []string{"climate"},
		FlagColumn: "contains_keyword",
		Fields:     []keyword.Field{keyword.FieldText},
	})
	sink := &memSink{}
	raw := mustDecode(t, `{
		"id_str": "outer",
		"text": "about climate",
		"retweeted_status": {"id_str": "rt", "text": "other"}
	}`)
	if _, err := New(f).Process(raw, sink); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// Annotate-only: both records written, each flagged on its own
	if len(sink.records) != 2 {
		t.Fatalf("records = %d, want 2", len(sink.records))
	}
	if sink.records[0]["contains_keyword"] != true {
		t.Errorf("outer flag = %v, want true", sink.records[0]["contains_keyword"])
	}
	if sink.records[1]["contains_keyword"] != false {
		t.Errorf("embedded flag = %v, want false", sink.records[1]["contains_keyword"])
	}
}

func TestProcessNoFlagWithoutRule(t *testing.T) {
	sink := &memSink{}
	if _, err := New(nil).Process(mustDecode(t, `{"id_str": "1"}`), sink); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if _, ok := sink.records[0]["contains_keyword"]; ok {
		t.Error("no flag column should be set without a rule")
	}
}

func TestProcessShapeErrorPropagates(t *testing.T) {
	sink := &memSink{}
	_, err := New(nil).Process(mustDecode(t, `{"entities": 5}`), sink)
	var shape *tweet.ShapeError
	if !errors.As(err, &shape) {
		t.Errorf("Process should surface the flattener's ShapeError, got %v", err)
	}
}

func TestProcessSinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("disk full")
	sink := &memSink{err: sinkErr}
	_, err := New(nil).Process(mustDecode(t, `{"id_str": "1"}`), sink)
	if !errors.Is(err, sinkErr) {
		t.Errorf("Process should surface the sink error, got %v", err)
	}
}
