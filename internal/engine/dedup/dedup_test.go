package dedup

import (
	"testing"
)

func TestIdentifiersEmpty(t *testing.T) {
	res := Identifiers(nil)
	if len(res.IDs) != 0 || res.Dropped() != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestIdentifiersNoDuplicates(t *testing.T) {
	res := Identifiers([]string{"IPR000001", "IPR000002", "IPR000003"})
	if len(res.IDs) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(res.IDs))
	}
	if res.Dropped() != 0 {
		t.Fatalf("expected nothing dropped, got %d", res.Dropped())
	}
}

func TestIdentifiersFirstOccurrenceOrder(t *testing.T) {
	res := Identifiers([]string{"IPR000009", "IPR000001", " IPR000009 ", "", "IPR000005", "  ", "IPR000001\r"})
	want := []string{"IPR000009", "IPR000001", "IPR000005"}
	if len(res.IDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, res.IDs)
	}
	for i := range want {
		if res.IDs[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, res.IDs[i], want[i])
		}
	}
	if res.Blank != 2 {
		t.Errorf("Blank = %d, want 2", res.Blank)
	}
	if res.Repeats != 2 {
		t.Errorf("Repeats = %d, want 2", res.Repeats)
	}
	if res.Dropped() != 4 {
		t.Errorf("Dropped() = %d, want 4", res.Dropped())
	}
}

func TestKeys(t *testing.T) {
	lines := []string{
		"IPR000001\t12\t300",
		"",
		"IPR000002\t50\t900",
		"IPR000001\t13\t301",
		"IPR000003",
	}
	keys, index, repeats := Keys(lines)

	wantKeys := []string{"IPR000001", "IPR000002", "IPR000003"}
	wantIndex := []int{0, 2, 4}
	if len(keys) != 3 || len(index) != 3 {
		t.Fatalf("expected 3 keys, got %v %v", keys, index)
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] || index[i] != wantIndex[i] {
			t.Errorf("key %d = (%q, %d), want (%q, %d)", i, keys[i], index[i], wantKeys[i], wantIndex[i])
		}
	}
	if repeats != 1 {
		t.Errorf("repeats = %d, want 1", repeats)
	}
}
