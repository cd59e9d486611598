package workflows

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dominikbraun/graph"
)

// Problem is a single lint finding in a workflow document.
type Problem struct {
	Path    string
	Line    int
	Message string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", p.Path, p.Line, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// jobIDRe matches valid job and step identifiers: they start with a letter or
// underscore and continue with alphanumerics, dashes, or underscores.
var jobIDRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// usesRe accepts action references: owner/repo@ref, owner/repo/path@ref,
// ./local/path, or docker://image.
var usesRe = regexp.MustCompile(`^(\./.+|docker://.+|[\w.-]+/[\w.-]+(/[\w./-]+)?@.+)$`)

// Lint checks one workflow for internal consistency. An empty result means
// the document's job graph resolves and every step is well formed.
func Lint(wf *Workflow) []Problem {
	var problems []Problem
	report := func(line int, format string, args ...any) {
		problems = append(problems, Problem{Path: wf.Path, Line: line, Message: fmt.Sprintf(format, args...)})
	}

	if len(wf.On.Events) == 0 {
		report(0, "workflow has no triggers")
	}
	for event, filter := range wf.On.Events {
		lintFilterPatterns(report, event, "tags", filter.Tags)
		lintFilterPatterns(report, event, "branches", filter.Branches)
		lintFilterPatterns(report, event, "branches-ignore", filter.BranchesIgnore)
		lintFilterPatterns(report, event, "tags-ignore", filter.TagsIgnore)
	}

	if len(wf.Jobs.Order) == 0 {
		report(0, "workflow has no jobs")
		return problems
	}

	for _, id := range wf.Jobs.Order {
		job := wf.Jobs.ByID[id]
		if !jobIDRe.MatchString(id) {
			report(job.Line, "job id %q is not a valid identifier", id)
		}
		if len(job.RunsOn) == 0 {
			report(job.Line, "job %q has no runs-on", id)
		}
		if len(job.Steps) == 0 {
			report(job.Line, "job %q has no steps", id)
		}
		for i, step := range job.Steps {
			lintStep(report, id, i, step)
		}
	}

	problems = append(problems, lintNeeds(wf)...)
	return problems
}

// LintAll lints a set of workflows, concatenating findings.
func LintAll(wfs []*Workflow) []Problem {
	var problems []Problem
	for _, wf := range wfs {
		problems = append(problems, Lint(wf)...)
	}
	return problems
}

func lintStep(report func(int, string, ...any), jobID string, index int, step Step) {
	label := step.Name
	if label == "" {
		label = fmt.Sprintf("step %d", index+1)
	}
	hasUses := strings.TrimSpace(step.Uses) != ""
	hasRun := strings.TrimSpace(step.Run) != ""
	switch {
	case hasUses && hasRun:
		report(step.Line, "job %q: %s declares both uses and run", jobID, label)
	case !hasUses && !hasRun:
		report(step.Line, "job %q: %s declares neither uses nor run", jobID, label)
	case hasUses && !usesRe.MatchString(strings.TrimSpace(step.Uses)):
		report(step.Line, "job %q: %s uses %q, expected owner/repo@ref or ./local", jobID, label, step.Uses)
	}
	if step.ID != "" && !jobIDRe.MatchString(step.ID) {
		report(step.Line, "job %q: step id %q is not a valid identifier", jobID, step.ID)
	}
	if hasRun && len(step.With) > 0 {
		report(step.Line, "job %q: %s combines run with with-inputs", jobID, label)
	}
}

// lintNeeds verifies every needs target exists and the dependency graph is
// acyclic.
func lintNeeds(wf *Workflow) []Problem {
	var problems []Problem
	report := func(line int, format string, args ...any) {
		problems = append(problems, Problem{Path: wf.Path, Line: line, Message: fmt.Sprintf(format, args...)})
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, id := range wf.Jobs.Order {
		_ = g.AddVertex(id)
	}
	for _, id := range wf.Jobs.Order {
		job := wf.Jobs.ByID[id]
		for _, target := range job.Needs {
			if _, ok := wf.Jobs.ByID[target]; !ok {
				report(job.Line, "job %q needs unknown job %q", id, target)
				continue
			}
			if target == id {
				report(job.Line, "job %q needs itself", id)
				continue
			}
			if err := g.AddEdge(target, id); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					report(job.Line, "job %q: needs cycle through %q", id, target)
				} else if !errors.Is(err, graph.ErrEdgeAlreadyExists) {
					report(job.Line, "job %q: needs %q: %v", id, target, err)
				}
			}
		}
	}
	return problems
}

func lintFilterPatterns(report func(int, string, ...any), event, field string, patterns []string) {
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			report(0, "trigger %q: empty %s pattern", event, field)
			continue
		}
		// filepath.Match rejects the same malformed character classes the
		// runner's glob syntax does; ** is collapsed since Match has no
		// recursive wildcard.
		probe := strings.ReplaceAll(pattern, "**", "*")
		if _, err := filepath.Match(probe, "probe"); err != nil {
			report(0, "trigger %q: malformed %s pattern %q", event, field, pattern)
		}
	}
}
