package pdfobj

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readOne(t *testing.T, src string) Object {
	t.Helper()
	s := newScanner([]byte(src))
	obj, err := s.ReadObject()
	if err != nil {
		t.Fatalf("ReadObject(%q): %v", src, err)
	}
	return obj
}

func TestReadObjectScalars(t *testing.T) {
	cases := []struct {
		src  string
		want Object
	}{
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"null", Null{}},
		{"42", Integer(42)},
		{"-17", Integer(-17)},
		{"3.14", Real(3.14)},
		{"-0.5", Real(-0.5)},
		{"/Type", Name("Type")},
	}
	for _, c := range cases {
		got := readOne(t, c.src)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("ReadObject(%q) mismatch (-want +got):\n%s", c.src, diff)
		}
	}
}

func TestReadObjectNameWithHexEscape(t *testing.T) {
	got := readOne(t, "/A#20B")
	if got != Name("A B") {
		t.Errorf("got %q, want %q", got, "A B")
	}
}

func TestReadObjectReference(t *testing.T) {
	got := readOne(t, "12 0 R")
	want := Reference{Number: 12, Generation: 0}
	if got != want {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestReadObjectLiteralStringWithEscapes(t *testing.T) {
	got := readOne(t, `(hello\nworld)`)
	want := String("hello\nworld")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectLiteralStringBalancedParens(t *testing.T) {
	got := readOne(t, `(a(b)c)`)
	want := String("a(b)c")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectHexString(t *testing.T) {
	got := readOne(t, "<48656C6C6F>")
	want := String("Hello")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectHexStringOddDigitsPadded(t *testing.T) {
	got := readOne(t, "<4>")
	want := String{0x40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectArray(t *testing.T) {
	got := readOne(t, "[1 2 /Three (four)]")
	want := Array{Integer(1), Integer(2), Name("Three"), String("four")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectDict(t *testing.T) {
	got := readOne(t, "<< /Type /Page /Count 3 >>")
	want := Dict{"Type": Name("Page"), "Count": Integer(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadObjectStreamWithExplicitLength(t *testing.T) {
	src := "<< /Length 5 >>\nstream\r\nhello\r\nendstream"
	got := readOne(t, src)
	st, ok := got.(*Stream)
	if !ok {
		t.Fatalf("got %#v, want *Stream", got)
	}
	if string(st.Raw) != "hello" {
		t.Errorf("Raw = %q, want %q", st.Raw, "hello")
	}
}

func TestReadObjectStreamFallsBackToEndstreamScan(t *testing.T) {
	src := "<< /Length 999 >>\nstream\nhello\nendstream"
	got := readOne(t, src)
	st, ok := got.(*Stream)
	if !ok {
		t.Fatalf("got %#v, want *Stream", got)
	}
	if string(st.Raw) != "hello" {
		t.Errorf("Raw = %q, want %q", st.Raw, "hello")
	}
}

func TestSkipWhiteSpaceSkipsComments(t *testing.T) {
	s := newScanner([]byte("  % a comment\n  42"))
	obj, err := s.ReadObject()
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if obj != Integer(42) {
		t.Errorf("got %#v, want Integer(42)", obj)
	}
}

func TestAsNumber(t *testing.T) {
	if v, ok := AsNumber(Integer(5)); !ok || v != 5 {
		t.Errorf("AsNumber(Integer(5)) = %v, %v", v, ok)
	}
	if v, ok := AsNumber(Real(2.5)); !ok || v != 2.5 {
		t.Errorf("AsNumber(Real(2.5)) = %v, %v", v, ok)
	}
	if _, ok := AsNumber(Name("x")); ok {
		t.Error("AsNumber(Name) = ok, want not ok")
	}
}
