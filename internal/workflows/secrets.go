package workflows

import (
	"regexp"
	"sort"
)

// secretRefRe matches ${{ secrets.NAME }} expressions.
var secretRefRe = regexp.MustCompile(`\$\{\{\s*secrets\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Secrets returns the distinct secret names the workflow references in env
// blocks, step inputs, and run scripts, sorted.
func Secrets(wf *Workflow) []string {
	found := make(map[string]struct{})
	collect := func(value string) {
		for _, match := range secretRefRe.FindAllStringSubmatch(value, -1) {
			found[match[1]] = struct{}{}
		}
	}

	for _, value := range wf.Env {
		collect(value)
	}
	for _, id := range wf.Jobs.Order {
		job := wf.Jobs.ByID[id]
		for _, value := range job.Env {
			collect(value)
		}
		collect(job.If)
		for _, step := range job.Steps {
			collect(step.Run)
			for _, value := range step.With {
				collect(value)
			}
			for _, value := range step.Env {
				collect(value)
			}
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SecretsAll merges the secret references of several workflows.
func SecretsAll(wfs []*Workflow) []string {
	found := make(map[string]struct{})
	for _, wf := range wfs {
		for _, name := range Secrets(wf) {
			found[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
