package palette

import (
	"github.com/dshills/quickjump/internal/action"
	"github.com/dshills/quickjump/internal/input/fuzzy"
	"github.com/dshills/quickjump/internal/metrics"
)

// findCommands matches raw against the menu tree and the registered actions.
// Menu items come first; a registered action whose id a menu item already
// contributed is skipped. Empty input yields nothing.
func (p *Palette) findCommands(raw string) ([]Candidate, error) {
	if raw == "" {
		return nil, nil
	}
	pat, err := p.patterns.Compile(raw)
	if err != nil {
		return nil, &abortError{reason: metrics.AbortPattern, err: err}
	}

	var found []ActionCandidate
	action.Walk(p.actions.Menus(), p.version, func(item action.MenuItem) {
		if item.Command == "" || !pat.MatchString(item.DisplayLabel()) {
			return
		}
		c := ActionCandidate{
			Name:        item.Label,
			PaletteName: item.Palette,
			CommandID:   item.Command,
			RetainFocus: item.RetainFocus,
		}
		if item.Argument != "" {
			c.Argument = item.Argument
		}
		found = append(found, c)
	})

	fromMenu := make(map[string]bool, len(found))
	for _, c := range found {
		fromMenu[c.CommandID] = true
	}
	for _, a := range p.actions.Registered() {
		if fromMenu[a.ID] || !pat.MatchString(a.Label) {
			continue
		}
		found = append(found, ActionCandidate{
			Name:        a.Label,
			CommandID:   a.ID,
			RetainFocus: a.RetainFocus,
		})
	}

	ranked := fuzzy.RankCommands(found, pat,
		func(c ActionCandidate) string { return c.Label() },
		func(c ActionCandidate) string { return c.CommandID })

	results := make([]Candidate, 0, min(len(ranked), MaxResults))
	for _, c := range ranked[:min(len(ranked), MaxResults)] {
		results = append(results, c)
	}
	return results, nil
}
