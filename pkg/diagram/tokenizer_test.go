package diagram

import (
	"testing"
)

func TestTokenizeNodes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Token
	}{
		{"section", "A[**1 Intro**]", Token{Kind: TokenSection, Line: 1, ID: "A", Text: "1 Intro"}},
		{"section with spaces", "  A [** 2 Planning **]  ", Token{Kind: TokenSection, Line: 1, ID: "A", Text: "2 Planning"}},
		{"question", "B{Has deadline?}", Token{Kind: TokenQuestion, Line: 1, ID: "B", Text: "Has deadline?"}},
		{"recommendation", "C[Use calendar]", Token{Kind: TokenRecommendation, Line: 1, ID: "C", Text: "Use calendar"}},
		{"bracket without emphasis is recommendation", "C[*Use calendar*]", Token{Kind: TokenRecommendation, Line: 1, ID: "C", Text: "*Use calendar*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line)
			if len(got) != 1 {
				t.Fatalf("Tokenize(%q) returned %d tokens, want 1", tt.line, len(got))
			}
			if got[0] != tt.want {
				t.Errorf("Tokenize(%q) = %+v, want %+v", tt.line, got[0], tt.want)
			}
		})
	}
}

func TestTokenizeEdges(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Token
	}{
		{"plain", "A --> B", Token{Kind: TokenEdge, Line: 1, From: "A", To: "B"}},
		{"plain tight", "A-->B", Token{Kind: TokenEdge, Line: 1, From: "A", To: "B"}},
		{"labeled", "B -->|Yes| C", Token{Kind: TokenEdge, Line: 1, From: "B", To: "C", Label: "Yes"}},
		{"labeled trims", "B -->| Not sure | C", Token{Kind: TokenEdge, Line: 1, From: "B", To: "C", Label: "Not sure"}},
		{"multi", "R -.->|Own proposals| S", Token{Kind: TokenEdge, Line: 1, From: "R", To: "S", Label: "Own proposals", Multiple: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.line)
			if len(got) != 1 {
				t.Fatalf("Tokenize(%q) returned %d tokens, want 1", tt.line, len(got))
			}
			if got[0] != tt.want {
				t.Errorf("Tokenize(%q) = %+v, want %+v", tt.line, got[0], tt.want)
			}
		})
	}
}

func TestTokenizeNodeAndEdgeOnOneLine(t *testing.T) {
	got := Tokenize("B -->|No| D{Recurring?}")
	if len(got) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(got), got)
	}
	if got[0].Kind != TokenQuestion || got[0].ID != "D" || got[0].Text != "Recurring?" {
		t.Errorf("first token = %+v, want question D", got[0])
	}
	if got[1].Kind != TokenEdge || got[1].From != "B" || got[1].To != "D" || got[1].Label != "No" {
		t.Errorf("second token = %+v, want edge B -> D", got[1])
	}
}

func TestTokenizeIgnoresUnmatched(t *testing.T) {
	src := "flowchart TD\n%% a comment\nstyle A fill:#f9f\nA -.-> B\n"
	if got := Tokenize(src); len(got) != 0 {
		t.Errorf("Tokenize() = %+v, want no tokens", got)
	}
}

func TestTokenizeLineNumbers(t *testing.T) {
	src := "flowchart TD\n\nA[**1 Intro**]\nA --> B\n"
	got := Tokenize(src)
	if len(got) != 2 {
		t.Fatalf("got %d tokens, want 2", len(got))
	}
	if got[0].Line != 3 || got[1].Line != 4 {
		t.Errorf("lines = %d, %d; want 3, 4", got[0].Line, got[1].Line)
	}
}

func TestTokenizeSectionMarker(t *testing.T) {
	src := `A[**1 Intro**]
B{First?}
C{Second?}

D{Detached?}
E[**2 Next**]
F{Inside?}
E --> F
G{After edge?}`

	marks := map[string]string{}
	for _, tok := range Tokenize(src) {
		if tok.Kind == TokenQuestion {
			marks[tok.ID] = tok.Section
		}
	}

	want := map[string]string{
		"B": "A",
		"C": "A",
		"D": "",
		"F": "E",
		"G": "",
	}
	for id, section := range want {
		if marks[id] != section {
			t.Errorf("question %s marker = %q, want %q", id, marks[id], section)
		}
	}
}

func TestTokenizeQuestionOnEdgeLineHasNoMarker(t *testing.T) {
	src := "A[**1 Intro**]\nA --> B{Inline?}"
	for _, tok := range Tokenize(src) {
		if tok.Kind == TokenQuestion && tok.Section != "" {
			t.Errorf("question %s on edge line got marker %q", tok.ID, tok.Section)
		}
	}
}

func TestTokenKindString(t *testing.T) {
	kinds := map[TokenKind]string{
		TokenSection:        "section",
		TokenQuestion:       "question",
		TokenRecommendation: "recommendation",
		TokenEdge:           "edge",
		TokenKind(0):        "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
