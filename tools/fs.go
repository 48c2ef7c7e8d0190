package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// readFileTool implements read_file, optionally restricted to a line range.
type readFileTool struct{}

func (readFileTool) Name() string        { return "read_file" }
func (readFileTool) ReadOnly() bool       { return true }
func (readFileTool) Description() string { return "Read a file, optionally a specific line range." }

func (readFileTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	path := stringArg(args, "path")
	if path == "" {
		return Result{Success: false, Error: "path is required"}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}

	offset := intArg(args, "offset", 0)
	limit := intArg(args, "limit", 0)
	if offset <= 0 && limit <= 0 {
		return Result{Success: true, Content: string(data)}, nil
	}

	lines := strings.Split(string(data), "\n")
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return Result{Success: true, Content: strings.Join(lines[start:end], "\n")}, nil
}

// writeFileTool implements write_file (gated) / write_file_confirmed
// (ungated bypass). Any write to an existing path is treated as
// destructive, since it can silently clobber content; new-file writes are
// not.
type writeFileTool struct{ confirmed bool }

func (t *writeFileTool) Name() string {
	if t.confirmed {
		return "write_file_confirmed"
	}
	return "write_file"
}
func (t *writeFileTool) ReadOnly() bool { return false }
func (t *writeFileTool) Description() string {
	return "Write content to a file, creating parent directories as needed. Overwriting an existing file requires confirmation."
}

func (t *writeFileTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	path := stringArg(args, "path")
	content := stringArg(args, "content")
	if path == "" {
		return Result{Success: false, Error: "path is required"}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: fmt.Sprintf("wrote %d bytes to %s", len(content), path)}, nil
}

type gatedWriteFileTool struct{ writeFileTool }

func newWriteFile() Tool          { return &gatedWriteFileTool{writeFileTool{confirmed: false}} }
func newWriteFileConfirmed() Tool { return &writeFileTool{confirmed: true} }

func (t *gatedWriteFileTool) NeedsConfirmation(args map[string]any) (string, bool) {
	path := stringArg(args, "path")
	if _, err := os.Stat(path); err == nil {
		return fmt.Sprintf("%s already exists and would be overwritten", path), true
	}
	return "", false
}

// editFileTool implements edit_file: a literal find-and-replace within an
// existing file, requiring the match to be unique.
type editFileTool struct{}

func (editFileTool) Name() string  { return "edit_file" }
func (editFileTool) ReadOnly() bool { return false }
func (editFileTool) Description() string {
	return "Replace one exact occurrence of old_string with new_string in a file."
}

func (editFileTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	path := stringArg(args, "path")
	oldStr := stringArg(args, "old_string")
	newStr := stringArg(args, "new_string")
	if path == "" || oldStr == "" {
		return Result{Success: false, Error: "path and old_string are required"}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	content := string(data)
	count := strings.Count(content, oldStr)
	if count == 0 {
		return Result{Success: false, Error: "old_string not found in file"}, nil
	}
	if count > 1 {
		return Result{Success: false, Error: fmt.Sprintf("old_string is not unique (%d occurrences)", count)}, nil
	}
	updated := strings.Replace(content, oldStr, newStr, 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Content: fmt.Sprintf("edited %s", path)}, nil
}

// listDirectoryTool implements list_directory.
type listDirectoryTool struct{}

func (listDirectoryTool) Name() string        { return "list_directory" }
func (listDirectoryTool) ReadOnly() bool       { return true }
func (listDirectoryTool) Description() string { return "List the contents of a directory." }

func (listDirectoryTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	path := stringArg(args, "path")
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	var lines []string
	for _, e := range entries {
		suffix := ""
		if e.IsDir() {
			suffix = "/"
		}
		lines = append(lines, e.Name()+suffix)
	}
	sort.Strings(lines)
	return Result{Success: true, Content: strings.Join(lines, "\n")}, nil
}

// findFilesTool implements find_files: a recursive glob over a root path.
type findFilesTool struct{}

func (findFilesTool) Name() string        { return "find_files" }
func (findFilesTool) ReadOnly() bool       { return true }
func (findFilesTool) Description() string { return "Recursively find files under a root path matching a glob pattern." }

func (findFilesTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	root := stringArg(args, "path")
	if root == "" {
		root = "."
	}
	pattern := stringArg(args, "pattern")
	if pattern == "" {
		pattern = "*"
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	sort.Strings(matches)
	return Result{Success: true, Content: strings.Join(matches, "\n")}, nil
}

// grepFilesTool implements grep_files: a regex search over files under a
// root path, reporting matching lines with their file and line number.
type grepFilesTool struct{}

func (grepFilesTool) Name() string        { return "grep_files" }
func (grepFilesTool) ReadOnly() bool       { return true }
func (grepFilesTool) Description() string { return "Search files under a root path for lines matching a regular expression." }

func (grepFilesTool) Execute(_ context.Context, args map[string]any) (Result, error) {
	root := stringArg(args, "path")
	if root == "" {
		root = "."
	}
	pattern := stringArg(args, "pattern")
	if pattern == "" {
		return Result{Success: false, Error: "pattern is required"}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("invalid pattern: %v", err)}, nil
	}
	filePattern := stringArg(args, "file_pattern")

	var lines []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filePattern != "" {
			if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
				return nil
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				lines = append(lines, fmt.Sprintf("%s:%d:%s", path, i+1, line))
			}
		}
		return nil
	})
	if walkErr != nil {
		return Result{Success: false, Error: walkErr.Error()}, nil
	}
	return Result{Success: true, Content: strings.Join(lines, "\n")}, nil
}
