package rewards

import "testing"

func TestRecordAndLookup(t *testing.T) {
	x := NewIndex()
	x.Record("w1", "https://claims/1")

	url, ok := x.Lookup("w1")
	if !ok || url != "https://claims/1" {
		t.Fatalf("lookup %q %v", url, ok)
	}
	if _, ok := x.Lookup("w2"); ok {
		t.Fatalf("phantom entry")
	}
}

func TestLastWriteWins(t *testing.T) {
	x := NewIndex()
	x.Record("w1", "https://claims/old")
	x.Record("w1", "https://claims/new")

	url, _ := x.Lookup("w1")
	if url != "https://claims/new" {
		t.Fatalf("stale url %q", url)
	}
}

func TestEmptyURLDoesNotErase(t *testing.T) {
	x := NewIndex()
	x.Record("w1", "https://claims/1")
	x.Record("w1", "")

	if url, ok := x.Lookup("w1"); !ok || url != "https://claims/1" {
		t.Fatalf("entry erased by empty url")
	}
}

func TestForget(t *testing.T) {
	x := NewIndex()
	x.Record("w1", "https://claims/1")
	x.Forget("w1")
	if _, ok := x.Lookup("w1"); ok {
		t.Fatalf("entry survived Forget")
	}
	if x.Len() != 0 {
		t.Fatalf("len %d", x.Len())
	}
}
