// Package compiler turns a flowchart diagram into a [form.Spec].
//
// Compilation runs in stages over an immutable [flow.Graph]:
//
//   - [ResolveMembership] assigns questions to sections
//   - [ResolveAnswers] derives answers from each question's outgoing edges
//   - [ResolveDependencies] derives direct and indirect dependencies
//   - [SortSections] and [SortQuestions] fix the presentation order
//
// [Compile] runs the whole chain on diagram text. Problems in the diagram
// never abort a compile; they are returned as diagnostics on the spec.
package compiler
