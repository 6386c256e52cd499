// Package palette implements the quick-open palette session.
//
// A Palette turns incrementally typed input into a bounded, ranked list of
// candidates and keeps a current selection that the host can navigate and
// confirm. The palette runs in one of two modes:
//
//   - Command mode matches the menu tree and registered actions.
//   - Location mode matches open documents, project files, text inside
//     documents ('#') and symbol references ('@'), with an optional line
//     target (':').
//
// Input that starts with ':', '#' or '@' always switches to location mode.
//
// # Architecture
//
// The palette owns no data. It reads documents, files, actions and
// preferences through small collaborator interfaces (see Collaborators) and
// reports navigation through the Sessions and Editor interfaces:
//
//   - query.Parse splits the input into file, line, search and reference parts
//   - fuzzy patterns filter and rank commands and file paths
//   - refcache holds the symbol references of each open document
//   - a debounce gate coalesces keystroke bursts into one evaluation
//
// # Usage
//
//	p, err := palette.New(palette.Collaborators{
//	    Sessions: manager,
//	    Editor:   manager,
//	    Content:  manager,
//	    Actions:  registry,
//	    Files:    fileIndex,
//	}, palette.WithScheduler(loop))
//
//	p.Activate(palette.ModeLocation)
//	p.OnKeystroke("foo.js:12")
//	// ...the scheduler fires and the results are ready
//	for _, c := range p.Results() {
//	    fmt.Println(c.Label(), c.Sublabel())
//	}
//	err = p.Confirm()
//
// # Thread Safety
//
// A Palette is not safe for concurrent use. Every method, including the
// debounced evaluation, must run on the host's event loop. The Scheduler
// passed to WithScheduler is responsible for delivering the deferred
// evaluation there. A Queue does this for hosts without a loop: its timers
// only enqueue, and Run executes the due calls on the caller's goroutine.
package palette
