package shared

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The River Crossing", "the-river-crossing"},
		{"  Histoire  du  Fleuve  ", "histoire-du-fleuve"},
		{"Canção do Mar", "cancao-do-mar"},
		{"story #12 (draft)", "story-12-draft"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 25, 120)
	if p.Offset() != 50 {
		t.Fatalf("offset = %d, want 50", p.Offset())
	}
	if p.TotalPages != 5 {
		t.Fatalf("total pages = %d, want 5", p.TotalPages)
	}

	capped := NewPagination(1, 500, 10)
	if capped.PerPage != 100 {
		t.Fatalf("per page = %d, want capped at 100", capped.PerPage)
	}
}
