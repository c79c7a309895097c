package settings

import (
	"testing"
)

func sampleFlatMap() FlatMap {
	return FlatMap{
		"a":     Int(12),
		"b":     Float(1.23),
		"c":     String("d:/projects"),
		"d":     Array(Int(1), Int(2), Int(3)),
		"e/f":   Int(23),
		"e/g":   Float(23.4),
		"e/h":   String("f:/k.bmp"),
		"e/i":   Array(Float(1.1), Float(3.3), Float(7.7)),
		"e/j/k": Int(734),
		"e/j/l": Array(Int(123), Float(3.3), String("abc")),
		"e/j/m": String("ccc"),
		"n":     Null(),
		"o":     Bool(true),
	}
}

func TestFlattenNestedExample(t *testing.T) {
	root := Object(map[string]Value{
		"a": Int(1),
		"e": Object(map[string]Value{
			"f": Int(2),
			"j": Object(map[string]Value{"k": Int(3)}),
		}),
	})

	got, ok := Flatten(root)
	if !ok {
		t.Fatalf("expected flatten to succeed")
	}
	want := FlatMap{"a": Int(1), "e/f": Int(2), "e/j/k": Int(3)}
	if !got.Equal(want) {
		t.Fatalf("flatten mismatch:\nwant: %v\n got: %v", want, got)
	}

	if back := Unflatten(got); !back.Equal(root) {
		t.Fatalf("unflatten mismatch:\nwant: %s\n got: %s", root, back)
	}
}

func TestFlattenRejectsNonObjectRoots(t *testing.T) {
	cases := map[string]Value{
		"empty object": EmptyObject(),
		"array":        Array(Int(1)),
		"null":         Null(),
		"string":       String("x"),
	}
	for name, root := range cases {
		t.Run(name, func(t *testing.T) {
			m, ok := Flatten(root)
			if ok {
				t.Fatalf("expected failure for %s root", name)
			}
			if len(m) != 0 {
				t.Fatalf("expected empty map, got %v", m)
			}
		})
	}
}

func TestFlattenKeepsArraysAndNullsAsLeaves(t *testing.T) {
	root := Object(map[string]Value{
		"list": Array(Object(map[string]Value{"x": Int(1)})),
		"none": Null(),
	})
	m, ok := Flatten(root)
	if !ok {
		t.Fatalf("expected flatten to succeed")
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 leaves, got %v", m)
	}
	if m["list"].Kind() != KindArray {
		t.Fatalf("expected array leaf, got %s", m["list"].Kind())
	}
	if !m["none"].IsNull() {
		t.Fatalf("expected null leaf, got %s", m["none"])
	}
}

func TestFlattenSkipsNestedEmptyObjects(t *testing.T) {
	root := Object(map[string]Value{
		"a":     Int(1),
		"empty": EmptyObject(),
	})
	m, ok := Flatten(root)
	if !ok {
		t.Fatalf("expected flatten to succeed")
	}
	if _, found := m["empty"]; found {
		t.Fatalf("nested empty object must not become a leaf")
	}
}

func TestFlattenCanonicalisesDocumentKeys(t *testing.T) {
	root := Object(map[string]Value{
		"":  Int(3),
		"z": Object(map[string]Value{"": Int(4), "/": Int(5)}),
		"x": Object(map[string]Value{"/y/": Int(6)}),
	})
	m, ok := Flatten(root)
	if !ok {
		t.Fatalf("expected flatten to succeed")
	}
	want := FlatMap{"x/y": Int(6)}
	if !m.Equal(want) {
		t.Fatalf("flatten mismatch:\nwant: %v\n got: %v", want, m)
	}
}

func TestFlattenLiteralSeparatorCollision(t *testing.T) {
	for i := 0; i < 20; i++ {
		m, _ := Flatten(Object(map[string]Value{
			"a/b": Int(1),
			"a":   Object(map[string]Value{"b": Int(2), "c": Int(3)}),
		}))
		want := FlatMap{"a/b": Int(1), "a/c": Int(3)}
		if !m.Equal(want) {
			t.Fatalf("run %d: want %v, got %v", i, want, m)
		}
	}

	m, _ := Flatten(Object(map[string]Value{
		"a/b": Int(1),
		"a":   Object(map[string]Value{"b": Object(map[string]Value{"c": Int(2)})}),
	}))
	if _, found := m["a/b"]; found {
		t.Fatalf("leaf must be shadowed by the key nested beneath it: %v", m)
	}
	if !m["a/b/c"].Equal(Int(2)) {
		t.Fatalf("expected a/b/c, got %v", m)
	}
}

func TestRoundTripLaw(t *testing.T) {
	m := sampleFlatMap()
	got, ok := Flatten(Unflatten(m))
	if !ok {
		t.Fatalf("expected flatten to succeed")
	}
	if !got.Equal(m) {
		t.Fatalf("round trip mismatch:\nwant: %v\n got: %v", m, got)
	}
}

func TestArrayPreservation(t *testing.T) {
	m := FlatMap{"d": Array(Int(1), Int(2), Int(3))}
	for i := 0; i < 2; i++ {
		var ok bool
		m, ok = Flatten(Unflatten(m))
		if !ok {
			t.Fatalf("cycle %d: flatten failed", i)
		}
	}
	elems, ok := m["d"].Elems()
	if !ok || len(elems) != 3 {
		t.Fatalf("expected 3-element array, got %s", m["d"])
	}
	for i, elem := range elems {
		n, ok := elem.AsInt()
		if !ok || n != int64(i+1) {
			t.Fatalf("element %d: expected %d, got %s", i, i+1, elem)
		}
	}
}

func TestMixedArrayElementTypes(t *testing.T) {
	m := FlatMap{"e/j/l": Array(Int(123), Float(3.3), String("abc"))}
	got, _ := Flatten(Unflatten(m))
	elems, ok := got["e/j/l"].Elems()
	if !ok || len(elems) != 3 {
		t.Fatalf("expected mixed array, got %s", got["e/j/l"])
	}
	if !elems[0].IsInteger() {
		t.Fatalf("expected integer first element, got %s", elems[0])
	}
	if f, ok := elems[1].AsFloat(); !ok || elems[1].IsInteger() || f != 3.3 {
		t.Fatalf("expected float 3.3, got %s", elems[1])
	}
	if s, ok := elems[2].AsString(); !ok || s != "abc" {
		t.Fatalf("expected string abc, got %s", elems[2])
	}
}

func TestUnflattenNormalisesKeys(t *testing.T) {
	a := Unflatten(FlatMap{"e//f": Int(1)})
	b := Unflatten(FlatMap{"/e/f/": Int(1)})
	if !a.Equal(b) {
		t.Fatalf("expected identical trees, got %s and %s", a, b)
	}
	want := Object(map[string]Value{"e": Object(map[string]Value{"f": Int(1)})})
	if !a.Equal(want) {
		t.Fatalf("unexpected tree %s", a)
	}
}

func TestUnflattenSkipsNoiseKeys(t *testing.T) {
	tree := Unflatten(FlatMap{"///": Int(1), "": Int(2), "a": Int(3)})
	if tree.Len() != 1 {
		t.Fatalf("expected only key a, got %s", tree)
	}
}

func TestUnflattenCollisionTerminates(t *testing.T) {
	tree := Unflatten(FlatMap{"e": Int(1), "e/f": Int(2)})
	if !tree.IsObject() {
		t.Fatalf("expected object root, got %s", tree.Kind())
	}
	node, ok := tree.Field("e")
	if !ok {
		t.Fatalf("expected e to survive in some form")
	}
	if node.Kind() != KindObject && node.Kind() != KindNumber {
		t.Fatalf("unexpected kind at e: %s", node.Kind())
	}
	if _, ok := Flatten(tree); !ok {
		t.Fatalf("collision result must still flatten")
	}
}

func TestUnflattenDoesNotAliasInput(t *testing.T) {
	m := FlatMap{"d": Array(Int(1))}
	tree := Unflatten(m)
	m["d"] = String("changed")
	d, _ := tree.Field("d")
	if d.Kind() != KindArray {
		t.Fatalf("tree must not observe later map writes")
	}
}

func TestUnflattenEmptyMap(t *testing.T) {
	tree := Unflatten(nil)
	if !tree.IsObject() || tree.Len() != 0 {
		t.Fatalf("expected empty object, got %s", tree)
	}
}
