package utils

import "testing"

func TestSplitRespondents(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Juan Dela Cruz", []string{"Juan Dela Cruz"}},
		{"Juan Dela Cruz, Maria Santos", []string{"Juan Dela Cruz", "Maria Santos"}},
		{"Juan; Maria ;  Pedro", []string{"Juan", "Maria", "Pedro"}},
		{" , ; ", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := SplitRespondents(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("SplitRespondents(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("SplitRespondents(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestNamesMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Juan Dela Cruz", "juan dela cruz", true},
		{"Juan  Dela   Cruz", "Juan Dela Cruz", true},
		{"Dela Cruz, Juan", "Dela Cruz Juan", true},
		{"Juan Dela Cruz", "Juan", true},
		{"Juan", "Juan Dela Cruz", true},
		{"Juan Dela Cruz", "Maria Santos", false},
		{"", "Juan", false},
	}
	for _, tc := range cases {
		if got := NamesMatch(tc.a, tc.b); got != tc.want {
			t.Errorf("NamesMatch(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAnyNameMatches(t *testing.T) {
	list := "Juan Dela Cruz, Maria Santos; Pedro Reyes"
	if !AnyNameMatches(list, "maria santos") {
		t.Fatal("expected maria santos to match")
	}
	if !AnyNameMatches(list, "Pedro") {
		t.Fatal("expected Pedro substring to match")
	}
	if AnyNameMatches(list, "Jose Rizal") {
		t.Fatal("Jose Rizal should not match")
	}
}
