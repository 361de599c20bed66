package fs

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"exact match", "foo.txt", "foo.txt", true},
		{"exact no match", "foo.txt", "bar.txt", false},
		{"exact path match", "dir/file.txt", "dir/file.txt", true},
		{"exact path no match", "dir/file.txt", "other/file.txt", false},

		{"star matches anything", "*.txt", "foo.txt", true},
		{"star matches empty", "*.txt", ".txt", true},
		{"star doesnt match slash", "*.txt", "dir/foo.txt", false},
		{"star in middle", "foo*.txt", "foobar.txt", true},
		{"multiple stars", "*.min.*", "app.min.js", true},

		{"question mark single char", "?.txt", "a.txt", true},
		{"question mark no match empty", "?.txt", ".txt", false},
		{"question mark no match slash", "?.txt", "/a.txt", false},

		{"double star matches everything", "**", "anything/at/all", true},
		{"double star matches empty", "**", "", true},
		{"double star prefix", "**/file.txt", "file.txt", true},
		{"double star prefix deep", "**/file.txt", "a/b/c/file.txt", true},
		{"double star suffix", "src/**", "src/pkg/main.go", true},
		{"double star in middle", "src/**/test.go", "src/test.go", true},
		{"double star in middle deep", "src/**/test.go", "src/a/b/c/test.go", true},
		{"node_modules anywhere", "**/node_modules/**", "frontend/node_modules/react/index.js", true},
		{"extension deep", "**/*.js", "src/components/Button.js", true},

		{"empty pattern empty path", "", "", true},
		{"empty pattern non-empty path", "", "file.txt", false},
		{"trailing slash pattern", "dir/", "dir/", true},
		{"hidden files", ".*", ".hidden", true},
		{"bad pattern never matches", "[", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchGlob(tt.pattern, tt.path)
			if got != tt.want {
				t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no patterns includes all", nil, nil, "any/file.txt", true},
		{"include match", []string{"*.tmpl"}, nil, "main.go.tmpl", true},
		{"include no match", []string{"*.tmpl"}, nil, "main.go", false},
		{"exclude match", nil, []string{"**/*.bak"}, "a/file.bak", false},
		{"exclude wins", []string{"**/*"}, []string{"**/*.bak"}, "file.bak", false},
		{"include with exclude keeps good", []string{"**/*"}, []string{"**/*.bak"}, "src/file.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.include, tt.exclude)
			if got := m.Match(tt.path); got != tt.want {
				t.Errorf("Matcher.Match(%q) = %v, want %v (include=%v, exclude=%v)",
					tt.path, got, tt.want, tt.include, tt.exclude)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"dir pattern matches dir", []string{".git/"}, ".git", true, true},
		{"dir pattern matches nested dir", []string{"node_modules/"}, "web/node_modules", true, true},
		{"dir pattern ignores file", []string{".git/"}, ".git", false, false},
		{"basename glob at depth", []string{"*.swp"}, "a/b/.main.go.swp", false, true},
		{"rooted path pattern", []string{"/build/out"}, "build/out", true, true},
		{"rooted path pattern elsewhere", []string{"/build/out"}, "x/build/out", true, false},
		{"no match", DefaultScanExcludes, "src/main.go.tmpl", false, false},
		{"default excludes DS_Store", DefaultScanExcludes, "a/.DS_Store", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excluded(tt.patterns, tt.path, tt.isDir); got != tt.want {
				t.Errorf("Excluded(%v, %q, %v) = %v, want %v", tt.patterns, tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestValidGlob(t *testing.T) {
	if !ValidGlob("src/**/*.go") {
		t.Error("expected src/**/*.go to be valid")
	}
	if ValidGlob("src/[a") {
		t.Error("expected src/[a to be invalid")
	}
}

func TestMergePatterns(t *testing.T) {
	got := MergePatterns([]string{"a", "b", "c"}, []string{"c", "d"}, []string{"b"})
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("MergePatterns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MergePatterns() = %v, want %v", got, want)
		}
	}
}
