// Package intent decides from a chat message whether the file server should
// be consulted, and turns the answer into model context.
package intent

import (
	"regexp"
	"strings"
)

// Op is the file operation a message asks for.
type Op int

// Operations a message can map to.
const (
	None Op = iota
	ListFiles
	ReadFile
)

func (o Op) String() string {
	switch o {
	case ListFiles:
		return "list_files"
	case ReadFile:
		return "read_file"
	default:
		return "none"
	}
}

// Intent is the structured result of classifying a message.
type Intent struct {
	Op   Op
	Path string
	// Explicit is set when the message used a read verb ("read file",
	// "content of"); a bare path-like word is a guess.
	Explicit bool
}

var listPhrases = []string{
	"list file", "list dir",
	"what file", "show file", "which file",
	"files in", "contents of the folder",
}

var listWords = map[string]bool{
	"list": true, "list files": true, "list dir": true,
	"files": true, "dir": true, "directory": true,
}

const verbs = `(?:read\s+file|show\s+content\s+of|content\s+of|read)`

var (
	quotedPath = regexp.MustCompile(`(?i)\b` + verbs + `\s+["']([^"']+)["']`)
	prefixPath = regexp.MustCompile(`(?is)\b(?:read\s+file|show\s+content\s+of|content\s+of)\s+(.+)`)
	tokenPath  = regexp.MustCompile(`(?i)\b(` + verbs + `)\s+["']?([^\s"']+)["']?`)
)

// cleanPath drops surrounding quotes and trailing sentence punctuation while
// keeping leading dots ("../x", ".env").
func cleanPath(s string) string {
	return strings.TrimRight(strings.TrimLeft(s, `"'`), `.,;:?!"'`)
}

// Classify maps a free-text message to at most one file operation.
func Classify(message string) Intent {
	if wantsListing(message) {
		return Intent{Op: ListFiles, Explicit: true}
	}
	if path, explicit := readPath(message); path != "" {
		return Intent{Op: ReadFile, Path: path, Explicit: explicit}
	}
	return Intent{}
}

func wantsListing(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return false
	}
	if listWords[m] {
		return true
	}
	for _, p := range listPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

// readPath extracts a file path. Names may contain spaces when they follow
// a read verb and end in a token with an extension or a slash.
func readPath(message string) (string, bool) {
	m := strings.TrimSpace(message)
	if m == "" {
		return "", false
	}

	if match := quotedPath.FindStringSubmatch(m); match != nil {
		if p := strings.TrimSpace(match[1]); p != "" {
			return p, true
		}
	}

	if match := prefixPath.FindStringSubmatch(m); match != nil {
		tokens := strings.Fields(match[1])
		for i, t := range tokens {
			if strings.ContainsAny(t, "./") {
				if p := cleanPath(strings.Join(tokens[:i+1], " ")); p != "" {
					return p, true
				}
				break
			}
		}
	}

	// "read me a poem" is not a request for a file called "me"
	if match := tokenPath.FindStringSubmatch(m); match != nil {
		if p := cleanPath(match[2]); p != "" {
			bareRead := strings.EqualFold(match[1], "read")
			return p, !bareRead || strings.ContainsAny(p, "./")
		}
	}

	for _, w := range strings.Fields(m) {
		clean := cleanPath(w)
		if strings.Contains(clean, "/") || (len(clean) > 1 && strings.Contains(clean, ".")) {
			return clean, false
		}
	}
	return "", false
}
