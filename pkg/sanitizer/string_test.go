package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "   ", expected: ""},
		{in: "Sarah Johnson", expected: "Sarah Johnson"},
		{in: "  Sarah   Johnson  ", expected: "Sarah Johnson"},
		{in: "Sarah\tJohnson", expected: "Sarah Johnson"},
		{in: "Sarah\n\nJohnson", expected: "Sarah Johnson"},
	}

	for _, c := range cases {
		if got := TrimAndNormalize(c.in); got != c.expected {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", c.in, got, c.expected)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "not a number", expected: ""},
		{in: "+14155552671", expected: "+14155552671"},
		{in: "(415) 555-2671", expected: "+14155552671"},
		{in: "415-555-2671", expected: "+14155552671"},
	}

	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.expected {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.expected)
		}
	}
}
