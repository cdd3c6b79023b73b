package raw

import "testing"

func TestDictObjKeysPreservesInsertionOrder(t *testing.T) {
	d := Dict()
	d.Set(NameLiteral("Type"), NameLiteral("Page"))
	d.Set(NameLiteral("MediaBox"), NewArray())
	d.Set(NameLiteral("Resources"), Dict())

	keys := d.Keys()
	want := []string{"Type", "MediaBox", "Resources"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range keys {
		if k.Value() != want[i] {
			t.Fatalf("key %d: expected %q, got %q", i, want[i], k.Value())
		}
	}
}

func TestDictObjSetOverwritingKeyDoesNotReorder(t *testing.T) {
	d := Dict()
	d.Set(NameLiteral("A"), NumberInt(1))
	d.Set(NameLiteral("B"), NumberInt(2))
	d.Set(NameLiteral("A"), NumberInt(99))

	keys := d.Keys()
	if len(keys) != 2 || keys[0].Value() != "A" || keys[1].Value() != "B" {
		t.Fatalf("unexpected key order after overwrite: %#v", keys)
	}
	v, _ := d.Get(NameLiteral("A"))
	if v.(NumberObj).Int() != 99 {
		t.Fatalf("expected overwritten value, got %v", v)
	}
}

func TestArrayObjAppendAndGet(t *testing.T) {
	a := NewArray(NumberInt(1), NumberInt(2))
	a.Append(NumberInt(3))
	if a.Len() != 3 {
		t.Fatalf("expected length 3, got %d", a.Len())
	}
	v, ok := a.Get(2)
	if !ok || v.(NumberObj).Int() != 3 {
		t.Fatalf("unexpected third element: %#v ok=%v", v, ok)
	}
	if _, ok := a.Get(10); ok {
		t.Fatalf("expected out-of-range Get to fail")
	}
}
