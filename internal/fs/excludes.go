package fs

// DefaultScanExcludes are the entries a template tree scan hides unless the
// config overrides them: VCS metadata, editor droppings and OS artifacts.
var DefaultScanExcludes = []string{
	// === Version control ===
	".git/",
	".hg/",
	".svn/",

	// === IDE & editors ===
	".idea/",
	".vscode/",
	"*.swp",
	"*.swo",
	"*~",

	// === OS artifacts ===
	".DS_Store",
	"Thumbs.db",
	"Desktop.ini",
}

// DefaultTemplateExcludes are skipped when loading templates even if they sit
// inside the template root.
var DefaultTemplateExcludes = []string{
	".git/**",
	"**/*.bak",
	"**/*~",
	"**/.DS_Store",
}

// MergePatterns appends additional patterns to base, dropping removed ones and
// duplicates while preserving order.
func MergePatterns(base, additional, remove []string) []string {
	removeSet := make(map[string]bool, len(remove))
	for _, p := range remove {
		removeSet[p] = true
	}

	seen := make(map[string]bool, len(base)+len(additional))
	result := make([]string, 0, len(base)+len(additional))
	for _, list := range [][]string{base, additional} {
		for _, p := range list {
			if removeSet[p] || seen[p] {
				continue
			}
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}
