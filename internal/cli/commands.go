package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/codalotl/proofreader/internal/diff"
	"github.com/codalotl/proofreader/internal/document"
	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/codalotl/proofreader/internal/preview"
	"github.com/codalotl/proofreader/internal/proofread"
	qcli "github.com/codalotl/proofreader/internal/q/cli"
	"github.com/codalotl/proofreader/internal/q/health"
	"github.com/codalotl/proofreader/internal/q/uni"
	"github.com/codalotl/proofreader/internal/review"
	"github.com/codalotl/proofreader/internal/revise"
	"github.com/codalotl/proofreader/internal/suggest"
)

// Overridden in tests.
var (
	newConversationalist = llmcomplete.NewConversationalist
	runReview            = runReviewProgram
)

func runReviewProgram(m review.Model, in io.Reader, out io.Writer) (review.Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return m, err
	}
	return final.(review.Model), nil
}

type configState struct {
	once    sync.Once
	cfg     Config
	sources []string
	err     error
}

func (s *configState) get() (Config, error) {
	s.once.Do(func() {
		s.cfg, s.sources, s.err = loadConfig()
	})
	return s.cfg, s.err
}

// target is a document opened from a command line argument: a file path, or "-" for stdin.
type target struct {
	doc   *document.Document
	stdin bool
}

func openTarget(c *qcli.Context, arg string) (*target, error) {
	if arg == "-" {
		b, err := io.ReadAll(c.In)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &target{doc: document.New(string(b)), stdin: true}, nil
	}
	doc, err := document.Load(arg)
	if err != nil {
		return nil, err
	}
	return &target{doc: doc}, nil
}

// save writes the document back to its file, or to stdout if it came from stdin.
func (t *target) save(c *qcli.Context) error {
	if t.stdin {
		_, err := io.WriteString(c.Out, t.doc.String())
		return err
	}
	return t.doc.Save()
}

// info is where messages about t go. With stdin, stdout carries the document, so they go to stderr.
func (t *target) info(c *qcli.Context) io.Writer {
	if t.stdin {
		return c.Err
	}
	return c.Out
}

// failure converts err into a failed exit that shows the human-facing message.
func failure(err error) error {
	var ue qcli.UsageError
	if errors.As(err, &ue) {
		return ue
	}
	return qcli.ExitError{Code: 1, Err: errors.New(health.HumanMessage(err))}
}

func newRootCommand() *qcli.Command {
	cfgState := &configState{}

	root := &qcli.Command{
		Name:  "proofreader",
		Short: "proofreader suggests edits to Markdown and text files as reviewable ==additions== and ~~removals~~.",
		Args:  qcli.NoArgs,
	}
	verbose := root.PersistentFlags().Bool("verbose", 'v', false, "Log details to stderr.")
	noColor := root.PersistentFlags().Bool("no-color", 0, false, "Disable colored output (also honors NO_COLOR).")

	logger := func(c *qcli.Context) *slog.Logger {
		if !*verbose {
			return nil
		}
		return slog.New(slog.NewTextHandler(c.Err, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	useColor := func(c *qcli.Context) bool {
		if *noColor || os.Getenv("NO_COLOR") != "" {
			return false
		}
		f, ok := c.Out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}

	runWithConfig := func(next func(c *qcli.Context, cfg Config) error) qcli.RunFunc {
		return func(c *qcli.Context) error {
			cfg, err := cfgState.get()
			if err != nil {
				return qcli.ExitError{Code: 1, Err: err}
			}
			if err := next(c, cfg); err != nil {
				return failure(err)
			}
			return nil
		}
	}

	// service returns a Service that can resolve suggestions. Proofreading needs a reviser; see proofreadService.
	service := func(c *qcli.Context, cfg Config, r revise.Reviser) *proofread.Service {
		return proofread.NewService(r, cfg.serviceOptions(), logger(c))
	}

	proofreadService := func(c *qcli.Context, cfg Config) (*proofread.Service, error) {
		modelID, err := cfg.modelID()
		if err != nil {
			return nil, err
		}
		if cfg.ProviderKeys.OpenAI != "" {
			llmcomplete.ConfigureProviderKey(llmcomplete.ProviderIDOpenAI, cfg.ProviderKeys.OpenAI)
		}
		opts := cfg.reviseOptions(modelID)
		opts.Logger = logger(c)
		return service(c, cfg, revise.New(newConversationalist(), opts)), nil
	}

	proofreadCmd := &qcli.Command{
		Name:    "proofread",
		Aliases: []string{"pr"},
		Short:   "Write suggested edits into a file.",
		Long: "Proofreads the file (or stdin, with \"-\") and writes the suggestions into it as ==additions== and ~~removals~~.\n" +
			"Review them with `proofreader review`, or resolve them with `accept`, `reject`, and `next`.",
		Example: "proofreader proofread README.md\nproofreader proofread --paragraph 12 notes.md\ncat draft.md | proofreader proofread - > draft.suggested.md",
		Args:    qcli.ExactArgs(1),
	}
	proofreadScope := addScopeFlags(proofreadCmd.Flags())
	proofreadModel := proofreadCmd.Flags().String("model", 'm', "", "Model ID to use (overrides config).")
	proofreadCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		if *proofreadModel != "" {
			cfg.Model = *proofreadModel
			if err := validateConfig(cfg); err != nil {
				return qcli.UsageError{Message: err.Error()}
			}
		}
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		scope, err := proofreadScope.resolve(t.doc)
		if err != nil {
			return err
		}
		svc, err := proofreadService(c, cfg)
		if err != nil {
			return err
		}

		// While the revision is in flight, the watcher marks the document stale if the file is edited.
		w, err := t.doc.Watch(c.Context)
		if err == nil {
			defer w.Close()
		} else if !errors.Is(err, document.ErrNoPath) {
			return err
		}

		report, err := svc.Proofread(c.Context, t.doc, scope)
		if err != nil {
			return err
		}
		if *verbose {
			llmcomplete.PrintTotalUsage(c.Err, []llmcomplete.Usage{report.Usage})
		}

		info := t.info(c)
		if report.Outcome == proofread.OutcomeNothingToChange {
			if t.stdin {
				if err := t.save(c); err != nil {
					return err
				}
			}
			return writeStringln(info, "No changes suggested.")
		}
		if err := t.save(c); err != nil {
			return err
		}
		if report.Truncated {
			if err := writeStringln(c.Err, "warning: the model's output limit was reached; the end of the text was not proofread."); err != nil {
				return err
			}
		}
		return writeStringln(info, fmt.Sprintf("Suggested %s and %s (%s-%s).",
			plural(report.Additions, "addition"), plural(report.Removals, "removal"),
			t.doc.PosAt(report.Scope.From), t.doc.PosAt(report.Scope.To)))
	})

	newResolveCommand := func(name string, policy suggest.Policy, short string) *qcli.Command {
		cmd := &qcli.Command{
			Name:  name,
			Short: short,
			Args:  qcli.ExactArgs(1),
		}
		sf := addScopeFlags(cmd.Flags())
		cmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
			t, err := openTarget(c, c.Args[0])
			if err != nil {
				return err
			}
			scope, err := sf.resolve(t.doc)
			if err != nil {
				return err
			}
			report, err := service(c, cfg, nil).ResolveInScope(t.doc, scope, policy)
			if err != nil {
				return err
			}
			if report.Outcome == proofread.OutcomeNothingToResolve {
				if t.stdin {
					if err := t.save(c); err != nil {
						return err
					}
				}
				return writeStringln(t.info(c), "No suggestions in scope.")
			}
			if err := t.save(c); err != nil {
				return err
			}
			verb := "Accepted"
			if policy == suggest.Reject {
				verb = "Rejected"
			}
			return writeStringln(t.info(c), fmt.Sprintf("%s %s (%s, %s).", verb,
				plural(report.Additions+report.Removals, "suggestion"),
				plural(report.Additions, "addition"), plural(report.Removals, "removal")))
		})
		return cmd
	}
	acceptCmd := newResolveCommand("accept", suggest.Accept, "Accept all suggestions in a file (or part of it).")
	rejectCmd := newResolveCommand("reject", suggest.Reject, "Reject all suggestions in a file (or part of it).")

	nextCmd := &qcli.Command{
		Name:  "next",
		Short: "Resolve the next suggestion from a cursor and print the new cursor.",
		Long: "Accepts (or, with --reject, rejects) the first suggestion at or after --cursor (before it, with --backward).\n" +
			"Prints the cursor after the change, so repeated calls walk through the file. Exits with 1 if there is no suggestion in that direction.",
		Example: "proofreader next --cursor 3:1 notes.md\nproofreader next --reject --backward --cursor 10:5 notes.md",
		Args:    qcli.ExactArgs(1),
	}
	nextCursor := &posValue{}
	nextCmd.Flags().Var(nextCursor, "cursor", 'c', "Cursor position (1-based line:col; default 1:1).")
	nextReject := nextCmd.Flags().Bool("reject", 'r', false, "Reject instead of accept.")
	nextBackward := nextCmd.Flags().Bool("backward", 'b', false, "Search backward from the cursor.")
	nextCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		cursor, err := t.doc.OffsetAt(nextCursor.pos)
		if err != nil {
			return err
		}
		policy := suggest.Accept
		if *nextReject {
			policy = suggest.Reject
		}
		dir := suggest.Forward
		if *nextBackward {
			dir = suggest.Backward
		}

		report, err := service(c, cfg, nil).ResolveNext(t.doc, cursor, policy, dir)
		if err != nil {
			return err
		}
		if report.Outcome == suggest.NothingToDo {
			where := "at or after"
			if dir == suggest.Backward {
				where = "before"
			}
			return qcli.ExitError{Code: 1, Err: fmt.Errorf("no suggestion %s %s", where, nextCursor)}
		}
		if err := t.save(c); err != nil {
			return err
		}
		return writeStringln(t.info(c), t.doc.PosAt(report.Cursor).String())
	})

	listCmd := &qcli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Short:   "List the suggestions in a file.",
		Args:    qcli.ExactArgs(1),
	}
	listCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		regions, err := suggest.ScanAll(t.doc.String(), cfg.Markers)
		if err != nil {
			return err
		}
		if len(regions) == 0 {
			return writeStringln(c.Out, "No suggestions.")
		}
		width := terminalWidth(c.Out)
		for _, r := range regions {
			sign := "+"
			if r.Kind == suggest.Removal {
				sign = "-"
			}
			prefix := fmt.Sprintf("%-8s %s ", t.doc.PosAt(r.Start), sign)
			if err := writeStringln(c.Out, prefix+uni.Snippet(r.Inner, max(width-len(prefix), 10), nil)); err != nil {
				return err
			}
		}
		return nil
	})

	diffCmd := &qcli.Command{
		Name:  "diff",
		Short: "Show the suggestions in a file as a diff.",
		Args:  qcli.ExactArgs(1),
	}
	diffContext := diffCmd.Flags().Int("context", 'C', 2, "Unchanged lines to show around each change.")
	diffCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		if *diffContext < 0 {
			return qcli.UsageError{Message: fmt.Sprintf("invalid --context: must be >= 0 (got %d)", *diffContext)}
		}
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		edits, err := suggest.Edits(t.doc.String(), cfg.Markers)
		if err != nil {
			return err
		}
		if !diff.HasChanges(edits) {
			return writeStringln(c.Out, "No suggestions.")
		}
		render := diff.RenderPlain
		if useColor(c) {
			render = diff.RenderPretty
		}
		_, err = io.WriteString(c.Out, render(edits, *diffContext))
		return err
	})

	previewCmd := &qcli.Command{
		Name:  "preview",
		Short: "Render a file with suggestions as an HTML page.",
		Args:  qcli.ExactArgs(1),
	}
	previewOut := previewCmd.Flags().String("output", 'o', "", "Write the page to this file instead of stdout.")
	previewCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		r, err := preview.New(cfg.Markers)
		if err != nil {
			return err
		}
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		body, err := t.doc.Text(t.doc.Body())
		if err != nil {
			return err
		}

		title := "Preview"
		if !t.stdin {
			title = filepath.Base(c.Args[0])
		}
		if fm, err := t.doc.Frontmatter(); err == nil {
			if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
				title = s
			}
		}

		if *previewOut == "" {
			return r.Page(c.Out, title, body)
		}
		f, err := os.Create(*previewOut)
		if err != nil {
			return err
		}
		if err := r.Page(f, title, body); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})

	reviewCmd := &qcli.Command{
		Name:  "review",
		Short: "Step through the suggestions in a file interactively.",
		Args:  qcli.ExactArgs(1),
	}
	reviewCmd.Run = runWithConfig(func(c *qcli.Context, cfg Config) error {
		if c.Args[0] == "-" {
			return qcli.UsageError{Message: "review needs a file; stdin is used for keyboard input"}
		}
		t, err := openTarget(c, c.Args[0])
		if err != nil {
			return err
		}
		final, err := runReview(review.New(t.doc, service(c, cfg, nil), c.Args[0]), c.In, c.Out)
		if err != nil {
			return err
		}
		if final.Err() != nil {
			return final.Err()
		}
		if final.Aborted() {
			return writeStringln(c.Out, "Aborted; nothing was saved.")
		}
		if final.Resolved() == 0 {
			return nil
		}
		if err := t.save(c); err != nil {
			return err
		}
		return writeStringln(c.Out, fmt.Sprintf("Resolved %s.", plural(final.Resolved(), "suggestion")))
	})

	configCmd := &qcli.Command{
		Name:  "config",
		Short: "Print proofreader configuration.",
		Args:  qcli.NoArgs,
		Run: runWithConfig(func(c *qcli.Context, cfg Config) error {
			if *verbose {
				if err := writeStringln(c.Err, "Loaded from: "+strings.Join(cfgState.sources, ", ")); err != nil {
					return err
				}
			}
			return writeConfigJSON(c.Out, cfg)
		}),
	}

	versionCmd := &qcli.Command{
		Name:  "version",
		Short: "Print proofreader version.",
		Args:  qcli.NoArgs,
		Run: func(c *qcli.Context) error {
			return writeStringln(c.Out, Version)
		},
	}

	root.AddCommand(proofreadCmd, acceptCmd, rejectCmd, nextCmd, listCmd, diffCmd, previewCmd, reviewCmd, configCmd, versionCmd)
	return root
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func writeStringln(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := fmt.Fprint(w, s)
	return err
}
