// Package prompts holds the LLM prompt templates used by the scorer. Each
// JSON file in this directory maps prompt keys to templates with {{.Name}}
// placeholders; the files are embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

var (
	loadOnce sync.Once
	loaded   map[string]map[string]string
	loadErr  error
)

// catalog parses every embedded prompt file once.
func catalog() (map[string]map[string]string, error) {
	loadOnce.Do(func() {
		names, err := fs.Glob(promptFiles, "*.json")
		if err != nil {
			loadErr = fmt.Errorf("failed to list prompt files: %w", err)
			return
		}
		files := make(map[string]map[string]string, len(names))
		for _, name := range names {
			data, err := promptFiles.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("failed to read prompt file %s: %w", name, err)
				return
			}
			var templates map[string]string
			if err := json.Unmarshal(data, &templates); err != nil {
				loadErr = fmt.Errorf("failed to parse prompt file %s: %w", name, err)
				return
			}
			files[name] = templates
		}
		loaded = files
	})
	return loaded, loadErr
}

// Get returns the raw template stored under key in file.
func Get(file, key string) (string, error) {
	files, err := catalog()
	if err != nil {
		return "", err
	}
	templates, ok := files[file]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", file)
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return template, nil
}

// Render fills the template stored under key in file. Every placeholder in
// the template must have a value in data. Substitution is a single pass, so
// placeholder text inside a value is left as is.
func Render(file, key string, data map[string]string) (string, error) {
	template, err := Get(file, key)
	if err != nil {
		return "", err
	}

	var pairs []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		value, ok := data[match[1]]
		if !ok {
			return "", fmt.Errorf("prompt %s/%s: no value for %s", file, key, match[0])
		}
		pairs = append(pairs, match[0], value)
	}
	if len(pairs) == 0 {
		return template, nil
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}
