package main

import "testing"

func TestNeedsMoreInput(t *testing.T) {
	cases := []struct {
		name string
		code string
		want bool
	}{
		{"complete expression", "1 + 2\n", false},
		{"open brace", "if (true) {\n", true},
		{"balanced block", "if (true) { 1 }\n", false},
		{"open paren", "print(1\n", true},
		{"unterminated string", `"hello\n`, true},
		{"string containing brace", `"{"` + "\n", false},
		{"escaped quote inside string", `"a\"b"` + "\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := needsMoreInput(tc.code)
			if got != tc.want {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}

func TestTopLevelBindingRewrite(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"let x = 5", "x = 5"},
		{"mut counter = 0", "counter = 0"},
		{"x = 5", "x = 5"},
		{"print(1)", "print(1)"},
	}
	for _, tc := range cases {
		got := topLevelBinding.ReplaceAllString(tc.in, "$2 =")
		if got != tc.want {
			t.Errorf("rewrite(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
