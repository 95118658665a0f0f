// Command donorctl manages the donor registry from a terminal: list and
// search donors, register, remove with confirmation, resolve contacts and
// print stats, inspect or reset the storage slot.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"donorregistry/internal/config"
	"donorregistry/internal/core"
	"donorregistry/internal/infra/logging"
	"donorregistry/internal/kv"
	"donorregistry/pkg/domain"
)

var exitFunc = os.Exit

const usage = `usage: donorctl [-trace] <command> [flags]

commands:
  list      [-q text] [-blood group]   show donors matching the search
  register  -name -blood -location -contact [-organ]
  remove    [-yes] <id>                remove a donor after confirmation
  contact   <id>                       resolve the contact action
  copy      <id>                       print "<name> — <contact>"
  stats                                show collection counters
  slots                                describe the stored slots
  reset     [-yes]                     delete the stored collection
`

func main() {
	exitFunc(cli(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func cli(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := flag.NewFlagSet("donorctl", flag.ContinueOnError)
	root.SetOutput(stderr)
	root.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }
	trace := root.Bool("trace", false, "write operation spans as JSON lines to stderr")
	if err := root.Parse(args); err != nil {
		return 2
	}
	if root.NArg() == 0 {
		root.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	ctx := context.Background()
	slots, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open storage: %v\n", err)
		return 1
	}
	defer func() { _ = slots.Close() }()

	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger := logging.NewAdapter(logging.NewWithWriter(stderr, cfg.Env, level))
	records := core.NewSlotRecordStore(slots,
		core.WithSlotKey(cfg.SlotKey),
		core.WithSeed(cfg.Seed),
		core.WithStoreLogger(logger),
	)
	term := &terminal{in: bufio.NewReader(stdin), out: stdout}
	opts := []core.ServiceOption{core.WithLogger(logger), core.WithNotifier(term)}
	if *trace {
		opts = append(opts, core.WithTracer(core.NewJSONLineTracer(stderr)))
	}
	svc := core.NewService(records, opts...)

	cmd, rest := root.Arg(0), root.Args()[1:]
	if err := dispatch(ctx, svc, term, cmd, rest, stderr); err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			_, _ = fmt.Fprintf(stderr, "%v\n%s", err, usage)
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "donorctl: %v\n", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func dispatch(ctx context.Context, svc *core.Service, term *terminal, cmd string, args []string, stderr io.Writer) error {
	switch cmd {
	case "list":
		fs := newFlagSet(cmd, stderr)
		q := fs.String("q", "", "search text")
		blood := fs.String("blood", "", "exact blood group")
		if err := fs.Parse(args); err != nil {
			return usageError{msg: err.Error()}
		}
		view, err := svc.Apply(ctx, core.Query{Search: *q, Blood: *blood})
		if err != nil {
			return err
		}
		return term.renderView(view)
	case "register":
		fs := newFlagSet(cmd, stderr)
		var reg domain.Registration
		fs.StringVar(&reg.Name, "name", "", "full name")
		fs.StringVar(&reg.Blood, "blood", "", "blood group")
		fs.StringVar(&reg.Organ, "organ", "", "organ (optional)")
		fs.StringVar(&reg.Location, "location", "", "city or area")
		fs.StringVar(&reg.Contact, "contact", "", "email or phone")
		if err := fs.Parse(args); err != nil {
			return usageError{msg: err.Error()}
		}
		donor, err := svc.Register(ctx, reg)
		if err != nil {
			return err
		}
		return term.printf("id: %s\n", donor.ID)
	case "remove":
		fs := newFlagSet(cmd, stderr)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(args); err != nil {
			return usageError{msg: err.Error()}
		}
		id, err := singleArg(cmd, fs.Args())
		if err != nil {
			return err
		}
		var confirm core.Confirmer = term
		if *yes {
			confirm = core.Confirmed
		}
		return svc.Remove(ctx, id, confirm)
	case "contact":
		id, err := singleArg(cmd, args)
		if err != nil {
			return err
		}
		action, err := svc.Contact(ctx, id)
		if err != nil {
			return err
		}
		if action.Href != "" {
			return term.printf("%s\n", action.Href)
		}
		return nil
	case "copy":
		id, err := singleArg(cmd, args)
		if err != nil {
			return err
		}
		return svc.Copy(ctx, id, term)
	case "stats":
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		return term.printf("total: %d\nblood donors: %d\norgan donors: %d\n", stats.Total, stats.BloodDonors, stats.OrganDonors)
	case "slots":
		infos, err := svc.Slots(ctx)
		if err != nil {
			return err
		}
		return term.renderSlots(infos)
	case "reset":
		fs := newFlagSet(cmd, stderr)
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(args); err != nil {
			return usageError{msg: err.Error()}
		}
		if fs.NArg() != 0 {
			return usageError{msg: "reset: takes no arguments"}
		}
		var confirm core.Confirmer = term
		if *yes {
			confirm = core.Confirmed
		}
		view, err := svc.Reset(ctx, confirm)
		if err != nil {
			return err
		}
		return term.renderView(view)
	default:
		return usageError{msg: fmt.Sprintf("unknown command %q", cmd)}
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func singleArg(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageError{msg: fmt.Sprintf("%s: expected exactly one donor id", cmd)}
	}
	return args[0], nil
}

// terminal is the CLI presentation layer: it prints notifications and
// tables, answers confirmation prompts from stdin and acts as the clipboard.
type terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func (t *terminal) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(t.out, format, args...)
	return err
}

// Notify implements core.Notifier.
func (t *terminal) Notify(_ context.Context, message string) {
	_ = t.printf("%s\n", message)
}

// Confirm implements core.Confirmer. Only "y" or "yes" answers affirmatively.
func (t *terminal) Confirm(_ context.Context, prompt string) bool {
	if err := t.printf("%s [y/N] ", prompt); err != nil {
		return false
	}
	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// WriteText implements core.Clipboard for a terminal without clipboard access:
// the text is printed for the user to copy.
func (t *terminal) WriteText(_ context.Context, text string) error {
	return t.printf("%s\n", text)
}

func (t *terminal) renderView(view core.View) error {
	if view.Empty() {
		if err := t.printf("No donors found.\n"); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tNAME\tBLOOD\tORGAN\tLOCATION\tCONTACT")
		for _, c := range view.Donors {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.BloodLabel, c.OrganLabel, c.Location, c.Contact)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	s := view.Stats
	return t.printf("total %d, blood donors %d, organ donors %d\n", s.Total, s.BloodDonors, s.OrganDonors)
}

func (t *terminal) renderSlots(infos []kv.Info) error {
	if len(infos) == 0 {
		return t.printf("No slots stored.\n")
	}
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tSIZE\tCONTENT-TYPE\tMODIFIED")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.Key, info.Size, info.ContentType, info.LastModified.Format(time.RFC3339))
	}
	return tw.Flush()
}
