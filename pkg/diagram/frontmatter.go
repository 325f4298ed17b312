package diagram

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// FrontMatter holds the metadata block that may precede a diagram.
type FrontMatter struct {
	Title string         `yaml:"title"`
	Extra map[string]any `yaml:",inline"`
}

// StripFrontMatter removes a leading "---" delimited metadata block from src
// and returns the decoded metadata together with the remaining body.
//
// Leading blank lines before the opening delimiter are allowed. An opening
// delimiter without a closing one is not front matter and src is returned
// unchanged. A block that is not valid YAML is still stripped; only its
// "title:" line is recovered.
//
// Line numbers of the returned body are preserved: stripped lines are
// replaced by empty lines so that token line numbers match the source.
func StripFrontMatter(src string) (FrontMatter, string) {
	lines := strings.Split(src, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != frontMatterDelim {
		return FrontMatter{}, src
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelim {
			end = i
			break
		}
	}
	if end < 0 {
		return FrontMatter{}, src
	}

	block := strings.Join(lines[start+1:end], "\n")
	fm := decodeFrontMatter(block)

	for i := 0; i <= end; i++ {
		lines[i] = ""
	}
	return fm, strings.Join(lines, "\n")
}

func decodeFrontMatter(block string) FrontMatter {
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(block), &fm); err == nil {
		fm.Title = strings.TrimSpace(fm.Title)
		return fm
	}

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && strings.TrimSpace(key) == "title" {
			return FrontMatter{Title: strings.Trim(strings.TrimSpace(value), `"'`)}
		}
	}
	return FrontMatter{}
}
