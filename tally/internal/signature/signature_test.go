package signature

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"road_blue.33012eed15cae5aa6a05.svg", "road_blue.svg"},
		{"road_blue.33012eed15cae5.svg", "road_blue.svg"},
		{"plainname.png", "plainname.png"},
		{"https://example.com/dist/images/card_lumber.1a2b3c4d5e.svg", "card_lumber.svg"},
		{"/dist/images/dice_3.svg?v=7", "dice_3.svg"},
		{"a.1a2b3c.4d5e6f.svg", "a.svg"}, // repeated hash segments all stripped
		{"short.abc.svg", "short.abc.svg"}, // under 6 hex chars: not a hash
		{"settlement_red.DEADBEEF01.svg", "settlement_red.svg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_FailOpen(t *testing.T) {
	// Degenerate inputs come back unchanged rather than empty.
	for _, in := range []string{"...", "/"} {
		if got := Canonicalize(in); got != in {
			t.Errorf("Canonicalize(%q): got %q, want input unchanged", in, got)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	imgs := []string{"card_brick.svg", "card_lumber.svg"}
	a := Compute("Carol got", imgs)
	b := Compute("Carol got", imgs)
	if a != b {
		t.Errorf("Compute not deterministic: %q vs %q", a, b)
	}
}

func TestCompute_OrderInsensitive(t *testing.T) {
	a := Compute("Carol got", []string{"card_lumber.svg", "card_brick.svg"})
	b := Compute("Carol got", []string{"card_brick.svg", "card_lumber.svg"})
	if a != b {
		t.Errorf("icon order changed signature: %q vs %q", a, b)
	}
}

func TestCompute_HashSuffixCollapses(t *testing.T) {
	a := Compute("Alice built a", []string{"road_blue.33012eed15cae5aa6a05.svg"})
	b := Compute("Alice built a", []string{"road_blue.99ffee0011ddccbb.svg"})
	if a != b {
		t.Errorf("cache-bust hashes should collapse: %q vs %q", a, b)
	}
}

func TestCompute_Format(t *testing.T) {
	got := Compute("x got", []string{"b.svg", "a.svg"})
	want := "x got|imgs:a.svg,b.svg"
	if got != want {
		t.Errorf("Compute: got %q, want %q", got, want)
	}
}

func TestAdjacencyKey(t *testing.T) {
	if got := AdjacencyKey("p", "c"); got != "p>>c" {
		t.Errorf("AdjacencyKey: got %q, want %q", got, "p>>c")
	}
}
