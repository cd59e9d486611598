package changelog_test

import (
	"strings"
	"testing"

	"relcut/internal/changelog"
)

func lintString(t *testing.T, content string) []changelog.Problem {
	t.Helper()
	doc, err := changelog.Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc.Lint()
}

func hasProblem(problems []changelog.Problem, fragment string) bool {
	for _, p := range problems {
		if strings.Contains(p.Message, fragment) {
			return true
		}
	}
	return false
}

func TestLintCleanDocument(t *testing.T) {
	if problems := lintString(t, sampleChangelog); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestLintFindings(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		fragment string
	}{
		{
			name:     "bad version heading",
			content:  "## [v1.2.3] - 2026-01-01\n\n### Fixes\n\n- Item\n",
			fragment: "version heading",
		},
		{
			name:     "missing date",
			content:  "## [1.2.3]\n\n### Fixes\n\n- Item\n",
			fragment: "missing a release date",
		},
		{
			name:     "bad date format",
			content:  "## [1.2.3] - Jan 1 2026\n\n### Fixes\n\n- Item\n",
			fragment: "expected YYYY-MM-DD",
		},
		{
			name: "duplicate version",
			content: "## [1.2.3] - 2026-01-02\n\n### Fixes\n\n- A\n\n" +
				"## [1.2.3] - 2026-01-01\n\n### Fixes\n\n- B\n",
			fragment: "duplicate entry",
		},
		{
			name: "ascending order",
			content: "## [1.0.0] - 2026-01-01\n\n### Fixes\n\n- A\n\n" +
				"## [1.1.0] - 2026-01-02\n\n### Fixes\n\n- B\n",
			fragment: "not older than",
		},
		{
			name:     "empty entry",
			content:  "## [1.2.3] - 2026-01-01\n",
			fragment: "has no entries",
		},
		{
			name:     "bare bullet marker",
			content:  "## [1.2.3] - 2026-01-01\n\n### Fixes\n\n- Item\n-\n",
			fragment: "empty bullet entry",
		},
		{
			name:     "unknown subsection",
			content:  "## [1.2.3] - 2026-01-01\n\n### Surprises\n\n- Item\n",
			fragment: "unrecognized subsection",
		},
		{
			name:     "item outside subsection",
			content:  "## [1.2.3] - 2026-01-01\n\n- Loose item\n",
			fragment: "outside",
		},
		{
			name: "unreleased not first",
			content: "## [1.2.3] - 2026-01-01\n\n### Fixes\n\n- A\n\n" +
				"## [Unreleased]\n\n### Fixes\n\n- B\n",
			fragment: "must be the first entry",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problems := lintString(t, tc.content)
			if !hasProblem(problems, tc.fragment) {
				t.Errorf("expected a problem containing %q, got %v", tc.fragment, problems)
			}
		})
	}
}

func TestLintProblemCarriesLine(t *testing.T) {
	problems := lintString(t, "# Changelog\n\n## [oops] - 2026-01-01\n\n### Fixes\n\n- A\n")
	if len(problems) == 0 {
		t.Fatal("expected a problem")
	}
	if problems[0].Line != 3 {
		t.Errorf("problem line = %d, want 3", problems[0].Line)
	}
	if !strings.HasPrefix(problems[0].String(), "line 3:") {
		t.Errorf("String() = %q, want line prefix", problems[0].String())
	}
}
