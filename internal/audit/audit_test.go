package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return l, path
}

func TestRecordAndRead(t *testing.T) {
	l, path := newTestLog(t)

	err := l.Record(Entry{
		Event:      EventExecuted,
		Operation:  "install_tools",
		Command:    "apt-get install -y jq",
		SnapshotID: "install_tools_20250101_120000",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record(Entry{Event: EventCancelled, Operation: "cleanup", Command: "rm -rf /tmp/x"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	l.Close()

	entries, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Event != EventExecuted || entries[0].SnapshotID != "install_tools_20250101_120000" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].PrevHash != GenesisHash {
		t.Errorf("first entry should chain from genesis, got %s", entries[0].PrevHash)
	}
	if entries[1].Timestamp == "" {
		t.Error("expected timestamp to be filled in")
	}
}

func TestVerifyIntactChain(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 5; i++ {
		if err := l.Record(Entry{Event: EventExecuted, Operation: "op", Command: "true"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	l.Close()

	res := Verify(path)
	if !res.Valid {
		t.Fatalf("expected valid chain: %+v", res)
	}
	if res.Lines != 5 {
		t.Errorf("expected 5 lines, got %d", res.Lines)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	l, path := newTestLog(t)
	l.Record(Entry{Event: EventExecuted, Operation: "op", Command: "echo one"})
	l.Record(Entry{Event: EventFailed, Operation: "op", Command: "echo two"})
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "echo one", "echo bad", 1)
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatal(err)
	}

	res := Verify(path)
	if res.Valid {
		t.Fatal("expected tampered chain to fail verification")
	}
	if res.ErrorLine != 2 {
		t.Errorf("expected break at line 2, got %d", res.ErrorLine)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	l, path := newTestLog(t)
	l.Record(Entry{Event: EventExecuted, Operation: "first", Command: "true"})
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	l2.Record(Entry{Event: EventRolledBack, Operation: "first", Command: "true"})
	l2.Close()

	res := Verify(path)
	if !res.Valid {
		t.Fatalf("chain broken across reopen: %+v", res)
	}
	if res.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", res.Lines)
	}
}
