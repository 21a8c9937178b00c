package decompose

import "testing"

type customKey struct {
	id int
}

func (k customKey) AppendBytes(dst []byte) []byte {
	return append(dst, byte(k.id))
}

func TestPipelineUsesDecomposableOverCustom(t *testing.T) {
	p := NewPipeline[customKey](func(v customKey, s *ByteSink) {
		s.PutBytes([]byte("should not be used"))
	})
	got := p.Bytes(customKey{id: 7})
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected Decomposable path to win, got %v", got)
	}
}

func TestPipelineDefaultsToTextify(t *testing.T) {
	p := NewPipeline[int](nil)
	got := p.Bytes(42)
	if string(got) != "42" {
		t.Fatalf("Bytes(42) = %q, want %q", got, "42")
	}
}

func TestPipelineUsesCustomDecomposer(t *testing.T) {
	p := NewPipeline[string](func(v string, s *ByteSink) {
		s.PutBytes([]byte(v))
		s.PutBytes([]byte("!"))
	})
	got := p.Bytes("hi")
	if string(got) != "hi!" {
		t.Fatalf("Bytes(hi) = %q, want %q", got, "hi!")
	}
}

func TestByteSinkAppendOnly(t *testing.T) {
	s := &ByteSink{}
	s.PutBytes([]byte("a"))
	s.PutBytes([]byte("b"))
	if string(s.IntoBytes()) != "ab" {
		t.Fatalf("IntoBytes() = %q, want %q", s.IntoBytes(), "ab")
	}
}
