// Package diagram tokenizes the flowchart subset that flowform compiles.
//
// # Grammar
//
// Only the node and edge forms used by sectioned decision trees are
// recognized. Every other line (the "flowchart TD" header, style
// directives, comments) is ignored without error.
//
//	A[**1 Intro**]          section: bracket content wrapped in ** markers
//	B{Has deadline?}        question: curly-brace block
//	C[Use calendar]         recommendation: plain bracket block
//	A --> B                 plain edge
//	B -->|Yes| C            labeled single-choice edge
//	R -.->|Option| S        labeled multi-choice edge (dashed arrow)
//
// Node declarations and edges are matched independently, so a line may
// yield one node and one edge at the same time:
//
//	B -->|No| D{Recurring?}
//
// declares question D and the edge B → D.
//
// # Match Priority
//
// Node patterns are tried in the order section, question, recommendation.
// A bracketed line is a section only when its content is wrapped in
// emphasis markers. Edge patterns are tried in the order labeled, plain,
// multi-choice.
//
// # Front Matter
//
// A leading YAML block delimited by "---" lines is removed by
// [StripFrontMatter] before tokenization. Its title becomes the form title.
package diagram
