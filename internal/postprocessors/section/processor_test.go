package section

import (
	"context"
	"testing"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"heading on first line", "# Definitions\nThe following terms apply.", "Definitions"},
		{"heading later on page", "Intro text.\n\n## 4. Termination  \nEither party may end.", "4. Termination"},
		{"first heading wins", "### Rent\n\n# Deposit", "Rent"},
		{"bold at start", "**Schedule A** lists the premises.", "Schedule A"},
		{"heading beats bold", "**Preamble**\n# Article 1", "Article 1"},
		{"bold not at start", "See **Annex B** for details.", ""},
		{"hash without space", "#hashtag text", ""},
		{"plain text", "Nothing to see here.", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "section" {
		t.Errorf("expected name 'section', got %q", New().Name())
	}
}

func TestProcessor_Process(t *testing.T) {
	page := domain.Page{Number: 2, Text: "## Payment Terms\nRent is due. Late fees apply."}
	in := []domain.Chunk{{ID: "d_p2_c0"}, {ID: "d_p2_c1"}}

	out, err := New().Process(context.Background(), page, domain.PageMeta{}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out))
	}
	for _, c := range out {
		if c.SectionTitle != "Payment Terms" {
			t.Errorf("chunk %s: expected section 'Payment Terms', got %q", c.ID, c.SectionTitle)
		}
	}
	if in[0].SectionTitle != "" {
		t.Error("input chunks should not be mutated")
	}
}

func TestProcessor_Process_NoTitle(t *testing.T) {
	in := []domain.Chunk{{ID: "d_p1_c0"}}

	out, err := New().Process(context.Background(), domain.Page{Number: 1, Text: "plain"}, domain.PageMeta{}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].SectionTitle != "" {
		t.Errorf("expected no section, got %q", out[0].SectionTitle)
	}
}
