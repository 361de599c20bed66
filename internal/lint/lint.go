// Package lint parses rendered files with tree-sitter and reports syntax
// errors, so a template that renders into broken source is caught before it
// is written.
package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	clang "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	sqllang "github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Issue is one syntax error. Line and Column are 1-based.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", i.File, i.Line, i.Column, i.Message)
}

// extensionToLanguage maps file extensions to language names
var extensionToLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".mts":  "typescript",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".sh":   "bash",
	".bash": "bash",
	".sql":  "sql",
	".toml": "toml",
	".yaml": "yaml",
	".yml":  "yaml",
}

// DetectLanguage returns the language name for a filename, or "" when no
// parser is available for it.
func DetectLanguage(filename string) string {
	return extensionToLanguage[strings.ToLower(filepath.Ext(filename))]
}

// Supported reports whether filename can be checked.
func Supported(filename string) bool {
	return DetectLanguage(filename) != ""
}

func language(lang string) *sitter.Language {
	switch lang {
	case "go":
		return golang.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	case "ruby":
		return ruby.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "c":
		return clang.GetLanguage()
	case "cpp":
		return cpp.GetLanguage()
	case "csharp":
		return csharp.GetLanguage()
	case "bash":
		return bash.GetLanguage()
	case "sql":
		return sqllang.GetLanguage()
	case "toml":
		return toml.GetLanguage()
	case "yaml":
		return yaml.GetLanguage()
	default:
		return nil
	}
}

// Check parses src as the language implied by filename and returns every
// ERROR or MISSING node. Unsupported files yield no issues.
func Check(ctx context.Context, filename string, src []byte) ([]Issue, error) {
	lang := language(DetectLanguage(filename))
	if lang == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || !root.HasError() {
		return nil, nil
	}

	var issues []Issue
	collectIssues(root, filename, &issues)
	if len(issues) == 0 {
		issues = append(issues, Issue{File: filename, Line: 1, Column: 1, Message: "syntax tree contains errors"})
	}
	return issues, nil
}

func collectIssues(node *sitter.Node, filename string, issues *[]Issue) {
	if node.IsError() || node.IsMissing() {
		msg := "syntax error"
		if node.IsMissing() {
			msg = fmt.Sprintf("missing %s", node.Type())
		}
		*issues = append(*issues, Issue{
			File:    filename,
			Line:    int(node.StartPoint().Row) + 1,
			Column:  int(node.StartPoint().Column) + 1,
			Message: msg,
		})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectIssues(child, filename, issues)
		}
	}
}
