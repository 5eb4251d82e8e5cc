package persona

import "testing"

func TestByName(t *testing.T) {
	for _, name := range []string{"Claire", "claire", "CLAIRE"} {
		p, ok := ByName(name)
		if !ok {
			t.Fatalf("ByName(%q) not found", name)
		}
		if p.Voice != "Kore" {
			t.Errorf("ByName(%q).Voice = %q, want Kore", name, p.Voice)
		}
	}
	if _, ok := ByName("nobody"); ok {
		t.Error("ByName(nobody) found something")
	}
}

func TestRosterVoicesUnique(t *testing.T) {
	seen := map[string]string{}
	for _, p := range Roster {
		if other, dup := seen[p.Voice]; dup {
			t.Errorf("voice %q shared by %s and %s", p.Voice, other, p.Name)
		}
		seen[p.Voice] = p.Name
	}
}

func TestParseSeniority(t *testing.T) {
	cases := map[string]Seniority{
		"entry":     Entry,
		"Senior":    Senior,
		"EXECUTIVE": Executive,
		"bogus":     Mid,
		"":          Mid,
	}
	for in, want := range cases {
		if got := ParseSeniority(in); got != want {
			t.Errorf("ParseSeniority(%q) = %q, want %q", in, got, want)
		}
	}
}
