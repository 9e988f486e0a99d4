// Command reconstruct replays a chronological stream of cleaned wiki
// talk-page revisions (one JSON record per line on stdin) and prints
// the conversation actions the classifier emits, page by page,
// checkpointing progress to a SQL-backed store along the way. Its
// option parsing follows cmd/psqldef's shape: jessevdk/go-flags,
// an optional password prompt via golang.org/x/term.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/wikidetox/reconstructor/action"
	"github.com/wikidetox/reconstructor/checkpoint"
	"github.com/wikidetox/reconstructor/checkpointstore"
	"github.com/wikidetox/reconstructor/config"
	"github.com/wikidetox/reconstructor/reconstruct"
	"github.com/wikidetox/reconstructor/util"
)

type options struct {
	ConfigFile     string `short:"c" long:"config" description:"YAML configuration file" value-name:"path"`
	CheckpointDSN  string `long:"checkpoint-dsn" description:"checkpoint store DSN, overriding the config file" value-name:"dsn"`
	PasswordPrompt bool   `long:"password-prompt" description:"prompt for the checkpoint store password instead of reading it from the DSN"`
	Debug          bool   `long:"debug" description:"pretty-print every emitted action"`
	Help           bool   `long:"help" description:"show this help"`
}

func parseOptions(args []string) (*options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...]"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	return &opts, rest
}

func main() {
	util.InitSlog()
	opts, _ := parseOptions(os.Args[1:])

	cfg := config.Default()
	if opts.ConfigFile != "" {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if opts.CheckpointDSN != "" {
		cfg.Checkpoint.DSN = opts.CheckpointDSN
	}
	if opts.PasswordPrompt {
		fmt.Fprint(os.Stderr, "Enter checkpoint store password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Checkpoint.DSN = fmt.Sprintf("%s password=%s", cfg.Checkpoint.DSN, string(pass))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.New().String()
	slog.Info("starting reconstruction run", "run_id", runID)

	var store *checkpointstore.Store
	if cfg.Checkpoint.DSN != "" {
		s, err := checkpointstore.Open(ctx, checkpointstore.Config{Driver: cfg.Checkpoint.Driver, DSN: cfg.Checkpoint.DSN})
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()
		store = s
	}

	printer := newActionPrinter(opts.Debug)
	if err := run(ctx, cfg, os.Stdin, store, opts.Debug, printer); err != nil {
		slog.Error("reconstruction run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}
}

// pageRevisions is one page_id's revisions, in arrival order, grouped
// from the input stream before the fan-out below.
type pageRevisions struct {
	pageID    string
	revisions []reconstruct.RevisionInput
}

// pageResult is what one worker produces for a page: its ordered
// actions across every processed revision, in the order ProcessRevision
// returned them. positions maps an action id to its sequential position
// among the page's live actions as of the revision that emitted it
// (pagestate.FindPos, via Reconstructor.PositionOf); it is only
// populated in --debug mode, where it enriches the pretty-printed
// output.
type pageResult struct {
	actions   []action.Action
	positions map[string]int
}

// debugEntry is the --debug pretty-print shape: an action plus its
// position in the page at the time it was emitted.
type debugEntry struct {
	action.Action
	Position int
}

// run reads newline-delimited revision JSON from r, groups it by
// page_id, and fans each page's Reconstructor out over a bounded
// worker pool sized to runtime.GOMAXPROCS(0) (spec §5: "embarrassingly
// parallel across pages"; each page's own Reconstructor instance still
// processes its revisions strictly in arrival order, and owns its
// DeletedIndex exclusively). If store is non-nil, each page's prior
// checkpoint is loaded before replay and the new one saved after.
func run(ctx context.Context, cfg config.Config, r *os.File, store *checkpointstore.Store, debug bool, print func(interface{})) error {
	groups, err := groupByPage(r)
	if err != nil {
		return err
	}

	results, err := util.ConcurrentMapFuncWithError(groups, runtime.GOMAXPROCS(0), func(pg pageRevisions) (pageResult, error) {
		select {
		case <-ctx.Done():
			return pageResult{}, ctx.Err()
		default:
		}
		return processPage(ctx, cfg, store, debug, pg)
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		for _, a := range res.actions {
			if debug {
				print(debugEntry{Action: a, Position: res.positions[a.ID]})
				continue
			}
			print(a)
		}
	}
	return nil
}

// groupByPage reads one JSON revision per line from r and buckets them
// by page_id, preserving both each page's internal revision order and
// the order pages first appear in the stream.
func groupByPage(r *os.File) ([]pageRevisions, error) {
	order := make(map[string]int)
	var groups []pageRevisions

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rev reconstruct.RevisionInput
		if err := json.Unmarshal(scanner.Bytes(), &rev); err != nil {
			return nil, fmt.Errorf("cmd/reconstruct: parse revision: %w", err)
		}
		idx, ok := order[rev.PageID]
		if !ok {
			idx = len(groups)
			order[rev.PageID] = idx
			groups = append(groups, pageRevisions{pageID: rev.PageID})
		}
		groups[idx].revisions = append(groups[idx].revisions, rev)
	}
	return groups, scanner.Err()
}

// processPage replays one page's revisions against a Reconstructor
// resumed from its last checkpoint (if store is non-nil and one
// exists), persists the new checkpoint, and returns every action the
// replay emitted. When debug is set, it also records each action's
// live position on the page (Reconstructor.PositionOf) as of the
// revision that emitted it, for the --debug pretty-printer.
func processPage(ctx context.Context, cfg config.Config, store *checkpointstore.Store, debug bool, pg pageRevisions) (pageResult, error) {
	var rec *reconstruct.Reconstructor
	if store != nil {
		data, lastText, _, ok, err := store.Load(ctx, pg.pageID)
		if err != nil {
			return pageResult{}, err
		}
		if ok {
			blob, err := checkpoint.Decode(data)
			if err != nil {
				return pageResult{}, fmt.Errorf("cmd/reconstruct: page %s: %w", pg.pageID, err)
			}
			rec, err = reconstruct.FromCheckpoint(cfg, blob, lastText)
			if err != nil {
				return pageResult{}, fmt.Errorf("cmd/reconstruct: page %s: %w", pg.pageID, err)
			}
		}
	}
	if rec == nil {
		title := ""
		if len(pg.revisions) > 0 {
			title = pg.revisions[0].PageTitle
		}
		rec = reconstruct.New(cfg, pg.pageID, title)
	}

	var all []action.Action
	var positions map[string]int
	if debug {
		positions = make(map[string]int)
	}
	var lastTimestamp string
	for _, rev := range pg.revisions {
		actions, err := rec.ProcessRevision(rev)
		if err != nil {
			return pageResult{}, fmt.Errorf("cmd/reconstruct: page %s rev %d: %w", rev.PageID, rev.RevID, err)
		}
		all = append(all, actions...)
		if debug {
			for _, a := range actions {
				if pos, ok := rec.PositionOf(a.ID); ok {
					positions[a.ID] = pos
				}
			}
		}
		lastTimestamp = rev.Timestamp
	}

	blob := rec.Checkpoint(lastTimestamp)
	if store != nil {
		encoded, err := checkpoint.Encode(blob)
		if err != nil {
			return pageResult{}, fmt.Errorf("cmd/reconstruct: page %s: encode checkpoint: %w", pg.pageID, err)
		}
		if err := store.Save(ctx, pg.pageID, blob.RevID, encoded, rec.LastContentText()); err != nil {
			return pageResult{}, err
		}
	}

	return pageResult{actions: all, positions: positions}, nil
}

// newActionPrinter returns a printer that pretty-prints when debug is
// set (in color, if stdout is a TTY), or emits compact JSON lines
// otherwise.
func newActionPrinter(debug bool) func(interface{}) {
	if !debug {
		enc := json.NewEncoder(os.Stdout)
		return func(v interface{}) { _ = enc.Encode(v) }
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		return func(v interface{}) { pp.Println(v) }
	}
	out := colorable.NewNonColorable(os.Stdout)
	return func(v interface{}) { fmt.Fprintf(out, "%+v\n", v) }
}
