package diagram

import (
	"regexp"
	"strings"
)

// TokenKind classifies a token emitted by [Tokenize].
type TokenKind int

const (
	// TokenSection declares a section node: A[**1 Intro**].
	TokenSection TokenKind = iota + 1
	// TokenQuestion declares a question node: B{Has deadline?}.
	TokenQuestion
	// TokenRecommendation declares a recommendation node: C[Use calendar].
	TokenRecommendation
	// TokenEdge connects two node ids: B -->|Yes| C.
	TokenEdge
)

// String returns a lowercase name for the kind.
func (k TokenKind) String() string {
	switch k {
	case TokenSection:
		return "section"
	case TokenQuestion:
		return "question"
	case TokenRecommendation:
		return "recommendation"
	case TokenEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Token is one node declaration or one edge found on a source line.
//
// Node tokens set ID and Text. Edge tokens set From, To, Label and Multiple.
type Token struct {
	Kind TokenKind
	Line int // 1-based source line

	ID   string
	Text string // section title, question text or recommendation text

	// Section is the id of the section whose declaration block encloses a
	// question token. Empty for all other tokens.
	Section string

	From     string
	To       string
	Label    string
	Multiple bool
}

// IsNode reports whether the token declares a node.
func (t Token) IsNode() bool { return t.Kind != TokenEdge && t.Kind != 0 }

var (
	sectionRe        = regexp.MustCompile(`(\w+)\s*\[\*\*(.*?)\*\*\]`)
	questionRe       = regexp.MustCompile(`(\w+)\s*\{(.*?)\}`)
	recommendationRe = regexp.MustCompile(`(\w+)\s*\[(.*?)\]`)

	labeledEdgeRe = regexp.MustCompile(`(\w+)\s*-->\s*\|(.*?)\|\s*(\w+)`)
	plainEdgeRe   = regexp.MustCompile(`(\w+)\s*-->\s*(\w+)`)
	multiEdgeRe   = regexp.MustCompile(`(\w+)\s*-\.?->\s*\|(.*?)\|\s*(\w+)`)
)

// Tokenize scans src line by line and returns node and edge tokens in source
// order. On a line that holds both, the node token comes first.
//
// A question declared on a declaration-only line inside a section's block
// (the section line and the declaration lines directly below it) carries
// the section id in [Token.Section]. A blank line or an edge line closes
// the block.
func Tokenize(src string) []Token {
	var (
		tokens  []Token
		current string // section whose block is open
	)

	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			current = ""
			continue
		}
		lineNo := i + 1

		node, hasNode := matchNode(line)
		edge, hasEdge := matchEdge(line)

		if hasNode {
			node.Line = lineNo
			if !hasEdge {
				switch node.Kind {
				case TokenSection:
					current = node.ID
				case TokenQuestion:
					node.Section = current
				}
			}
			tokens = append(tokens, node)
		}
		if hasEdge {
			edge.Line = lineNo
			tokens = append(tokens, edge)
			current = ""
		}
	}
	return tokens
}

func matchNode(line string) (Token, bool) {
	if m := sectionRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenSection, ID: m[1], Text: strings.TrimSpace(m[2])}, true
	}
	if m := questionRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenQuestion, ID: m[1], Text: strings.TrimSpace(m[2])}, true
	}
	if m := recommendationRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenRecommendation, ID: m[1], Text: strings.TrimSpace(m[2])}, true
	}
	return Token{}, false
}

func matchEdge(line string) (Token, bool) {
	if m := labeledEdgeRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenEdge, From: m[1], Label: strings.TrimSpace(m[2]), To: m[3]}, true
	}
	if m := plainEdgeRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenEdge, From: m[1], To: m[2]}, true
	}
	if m := multiEdgeRe.FindStringSubmatch(line); m != nil {
		return Token{Kind: TokenEdge, From: m[1], Label: strings.TrimSpace(m[2]), To: m[3], Multiple: true}, true
	}
	return Token{}, false
}
