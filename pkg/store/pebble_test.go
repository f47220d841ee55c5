package store

import (
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSetGetDelete(t *testing.T) {
	st := openStore(t)

	if err := st.Set("k1", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := st.Get("k1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(v) != "v1" {
		t.Fatalf("value %q", v)
	}

	if err := st.Delete("k1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := st.Get("k1"); found {
		t.Fatalf("key survived delete")
	}
}

func TestGetAbsentKey(t *testing.T) {
	st := openStore(t)
	_, found, err := st.Get("missing")
	if err != nil {
		t.Fatalf("absent key errored: %v", err)
	}
	if found {
		t.Fatalf("absent key reported found")
	}
}

func TestScanPrefix(t *testing.T) {
	st := openStore(t)
	st.Set("vote:w1", []byte("a"))
	st.Set("vote:w2", []byte("b"))
	st.Set("state:paused", []byte("1"))

	var keys []string
	err := st.ScanPrefix("vote:", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "vote:w1" || keys[1] != "vote:w2" {
		t.Fatalf("scan keys %v", keys)
	}
}

func TestScanValueSurvivesIteration(t *testing.T) {
	st := openStore(t)
	st.Set("vote:w1", []byte("payload"))

	var captured []byte
	st.ScanPrefix("vote:", func(_ string, value []byte) error {
		captured = value
		return nil
	})
	if string(captured) != "payload" {
		t.Fatalf("value not copied out of iterator: %q", captured)
	}
}

func TestReadyReflectsLifecycle(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !st.Ready() {
		t.Fatalf("open store not ready")
	}
	st.Close()
	if st.Ready() {
		t.Fatalf("closed store still ready")
	}
}
