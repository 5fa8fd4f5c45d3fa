package prompt

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Library is a file-backed store of named prompt templates. The file
// format is a sequence of sections delimited by [[[name]]] header lines,
// with the template body on the following lines:
//
//	[[[Translate to French]]]
//	Translate {Front} to French.
//
// Saves rewrite the whole file with sections sorted by name.
type Library struct {
	path string
}

// NewLibrary creates a Library backed by the given file path. The file
// does not need to exist yet; Load on a missing file returns an empty
// map.
func NewLibrary(path string) *Library {
	return &Library{path: path}
}

// Load reads all saved templates from the library file.
func (l *Library) Load() (map[string]string, error) {
	templates := make(map[string]string)

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return templates, nil
		}
		return nil, fmt.Errorf("failed to open template library: %w", err)
	}
	defer func() { _ = f.Close() }()

	var currentName string
	var currentBody []string

	flush := func() {
		if currentName != "" {
			templates[currentName] = strings.TrimRight(strings.Join(currentBody, "\n"), "\n")
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "[[[") && strings.HasSuffix(line, "]]]") {
			flush()
			currentName = strings.TrimSpace(line[3 : len(line)-3])
			currentBody = currentBody[:0]
			continue
		}
		if currentName != "" {
			currentBody = append(currentBody, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read template library: %w", err)
	}
	flush()

	return templates, nil
}

// Save writes the full template set back to the library file, sorted by
// name for stable diffs.
func (l *Library) Save(templates map[string]string) error {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "[[[%s]]]\n%s\n\n", name, templates[name])
	}

	if err := os.WriteFile(l.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write template library: %w", err)
	}
	return nil
}

// Put loads the library, upserts one template, and saves it back.
func (l *Library) Put(name, template string) error {
	templates, err := l.Load()
	if err != nil {
		return err
	}
	templates[name] = template
	return l.Save(templates)
}
