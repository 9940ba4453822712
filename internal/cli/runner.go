// Package cli dispatches the todo subcommands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/tui"
	"github.com/idilsaglam/todostate/internal/ui"
	"github.com/idilsaglam/todostate/pkg/storage"
)

// Options carry the root flags into every subcommand.
type Options struct {
	DataDir string // directory the storage backend lives in
	Backend string // "file" (default) or "badger"
	Status  string // ls filter: all|active|completed
	Search  string // ls filter: case-insensitive title substring
	Where   string // ls filter: boolean expression
}

func (o Options) filter() model.Filter {
	return model.Filter{Status: model.ParseStatus(o.Status), Search: o.Search}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: todo add <title...>")
			return 2
		}
		return doAdd(opt, strings.Join(a, " "))

	case "ls":
		return doList(opt)

	case "done":
		n, code := indexArg(a, "done")
		if code != 0 {
			return code
		}
		return doToggle(opt, n)

	case "rm":
		n, code := indexArg(a, "rm")
		if code != 0 {
			return code
		}
		return doRemove(opt, n)

	case "mv":
		if len(a) != 2 {
			ui.Fail("usage: todo mv <index> <position>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("mv: not a number: " + a[0])
			return 2
		}
		pos, err := strconv.Atoi(a[1])
		if err != nil {
			ui.Fail("mv: not a number: " + a[1])
			return 2
		}
		return doMove(opt, n, pos)

	case "tui":
		return doTUI(opt)

	case "watch":
		return doWatch(opt)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todo - a tiny observable todo store

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <title...>       Add a new item (title can be multiple words)
  ls                   List items (see -status, -q, -where)
  done <index>         Toggle done for item at 1-based index
  rm <index>           Remove item at 1-based index
  mv <index> <pos>     Move item to 1-based position
  tui                  Interactive list
  watch                Re-render the list whenever the data file changes
  help                 Show this help

Indexes refer to the ls output for the same -status/-q flags.

Examples:
  todo add "Buy milk"
  todo -status active -q milk ls
  todo -where '!completed && position < 3' ls
  todo mv 3 1
`)
}

func indexArg(a []string, cmd string) (int, int) {
	if len(a) != 1 {
		ui.Fail("usage: todo " + cmd + " <index>")
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		ui.Fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return n, 0
}

// openStore builds the store over the configured backend. The returned
// cleanup must run before exit.
func openStore(opt Options) (*store.Store, func(), error) {
	dir := opt.DataDir
	if dir == "" {
		dir = "."
	}
	switch opt.Backend {
	case "badger":
		b, err := storage.OpenBadger(storage.BadgerConfig{
			Path:       filepath.Join(dir, "todos.badger"),
			SyncWrites: true,
		})
		if err != nil {
			return nil, nil, err
		}
		return store.New(b), func() { _ = b.Close() }, nil
	case "", "file":
		f, err := storage.NewFile(dir)
		if err != nil {
			return nil, nil, err
		}
		return store.New(f), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q (want file or badger)", opt.Backend)
}

// resolve maps a 1-based list index onto the todo occupying it, under
// the same filter `ls` renders with, so the numbers a user just saw are
// the numbers that act.
func resolve(s *store.Store, f model.Filter, userIndex int) (model.Todo, bool) {
	items := s.Filtered(f)
	if userIndex < 1 || userIndex > len(items) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		fmt.Fprintln(os.Stderr, ui.Muted.Render("Hint: run `todo ls` with the same flags to see valid indexes"))
		return model.Todo{}, false
	}
	return items[userIndex-1], true
}

// failure renders a domain error and picks the exit code: bad input is a
// usage error, everything else an operational one.
func failure(err error) int {
	ui.Fail(err.Error())
	var verr *store.ValidationError
	var nf *store.NotFoundError
	if errors.As(err, &verr) || errors.As(err, &nf) {
		return 2
	}
	return 1
}

// -------------- subcommand impls ----------------

func doAdd(opt Options, title string) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	if _, err := s.Add(title); err != nil {
		return failure(err)
	}
	ui.OK("added")
	return 0
}

func doList(opt Options) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	var items []model.Todo
	if opt.Where != "" {
		items, err = s.Query(opt.Where)
		if err != nil {
			return failure(err)
		}
	} else {
		items = s.Filtered(opt.filter())
	}

	ui.Panel(listLines(items, s.State().Items))
	return 0
}

func doToggle(opt Options, userIndex int) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	t, found := resolve(s, opt.filter(), userIndex)
	if !found {
		return 2
	}
	if _, err := s.Toggle(t.ID); err != nil {
		return failure(err)
	}
	ui.OK("toggled")
	return 0
}

func doRemove(opt Options, userIndex int) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	t, found := resolve(s, opt.filter(), userIndex)
	if !found {
		return 2
	}
	if err := s.Delete(t.ID); err != nil {
		return failure(err)
	}
	ui.OK("removed")
	return 0
}

func doMove(opt Options, userIndex, userPos int) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	t, found := resolve(s, opt.filter(), userIndex)
	if !found {
		return 2
	}
	if err := s.Reorder(t.ID, userPos-1); err != nil {
		return failure(err)
	}
	ui.OK("moved")
	return 0
}

func doTUI(opt Options) int {
	s, cleanup, err := openStore(opt)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}
	defer cleanup()

	if err := tui.Run(s); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

// doWatch tails the data file and re-renders on every external write.
// Reads go straight through the provider so watching never writes back
// (a store instance would re-sync the file and trip its own event).
func doWatch(opt Options) int {
	if opt.Backend != "" && opt.Backend != "file" {
		ui.Fail("watch: only the file backend can be watched")
		return 2
	}
	dir := opt.DataDir
	if dir == "" {
		dir = "."
	}
	f, err := storage.NewFile(dir)
	if err != nil {
		ui.Fail("open store: " + err.Error())
		return 1
	}

	render := func() {
		var st store.State
		f.Get(store.DefaultKey, &st)
		model.SortByPosition(st.Items)
		flt := opt.filter()
		items := make([]model.Todo, 0, len(st.Items))
		for _, t := range st.Items {
			if flt.Match(t) {
				items = append(items, t)
			}
		}
		fmt.Print("\033[H\033[2J")
		ui.Panel(listLines(items, st.Items))
		fmt.Println(ui.Muted.Render("watching " + f.Path(store.DefaultKey) + " (ctrl-c to stop)"))
	}
	render()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		ui.Fail("watch: " + err.Error())
		return 1
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		ui.Fail("watch: " + err.Error())
		return 1
	}

	target := f.Path(store.DefaultKey)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return 0
			}
			if ev.Name == target && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				render()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return 0
			}
			ui.Fail("watch: " + err.Error())
		}
	}
}

// -------------- rendering helpers --------------

// listLines renders the filtered items plus a header computed over the
// whole list, so the progress tally is not skewed by the filter.
func listLines(items, all []model.Todo) []string {
	done, pending := stats(all)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.Title.Render("Todos"),
		ui.Success.Render("✔"), done,
		ui.Pending.Render("•"), pending,
		ui.Accent.Render("Total"), len(all),
	)

	lines := []string{header, ui.Muted.Render(ui.ProgressBar(done, len(all), 28)), ""}

	if len(items) == 0 {
		lines = append(lines, ui.Muted.Render("no items"))
	}
	for i, t := range items {
		box, style := ui.BoxUnchecked, ui.Muted
		title := truncate(t.Title, 80)
		if t.Completed {
			box, style = ui.BoxChecked, ui.Success
			title = ui.Done.Render(title)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			ui.Muted.Render(fmt.Sprintf("%2d.", i+1)), style.Render(box), title))
	}

	lines = append(lines, "", ui.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

// truncate shortens s to at most max runes, never splitting a rune.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func stats(items []model.Todo) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
