// Package nodelink draws the diagram graph behind a form as a node-link
// picture, so authors can check how sections, questions and
// recommendations are wired.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Title: "Planning"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// SVG rendering runs Graphviz in process through
// [github.com/goccy/go-graphviz]. PDF and PNG go through SVG and need
// rsvg-convert on the PATH.
package nodelink
