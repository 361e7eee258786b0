package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/facetsearch"
	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/usecase/history"
	"github.com/kailas-cloud/facetsearch/internal/view/terminal"
)

const shellHelp = `Commands:
  text <words>            set the search term (searches as you type)
  sort <order>            change the result order
  type <kind>             toggle a document type
  dates <after> <before>  set the date range, "-" leaves a bound open
  near <lat> <lng> [m]    filter by location, radius in meters
  nowhere                 drop the location filter
  person <id>|-           select a person, "-" clears
  org <id>|-              select an organization, "-" clears
  find person|org <text>  list matching filter items
  submit                  search the current form
  more                    load the next page
  back                    go back in history
  go <url>                navigate to a search URL
  query                   print the encoded query
  state                   print the session state
  wait                    wait for pending requests
  help                    show this help
  quit                    leave the shell`

var errQuit = errors.New("quit")

// ShellCommand starts an interactive search session.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive faceted search session",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			view := terminal.New(os.Stdout, logger.Named("view"), terminal.WithDomain(cfg.Backend.BaseURL))
			opts := append(sessionOptions(cfg, logger), facetsearch.WithView(view))
			s, err := facetsearch.New(ctx, opts...)
			if err != nil {
				return err
			}
			defer s.Close()

			sh := &shell{
				session:       s,
				out:           os.Stdout,
				actionPath:    cfg.Backend.ActionPath,
				defaultRadius: cfg.Facets.DefaultRadius,
			}
			return sh.run(ctx, os.Stdin)
		},
	}
}

// shell interprets one command per line against a Session.
type shell struct {
	session       *facetsearch.Session
	out           io.Writer
	actionPath    string
	defaultRadius int
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(sh.out, "> ")
	for sc.Scan() {
		err := sh.exec(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if errors.Is(err, facetsearch.ErrClosed) {
			return err
		}
		if err != nil {
			fmt.Fprintln(sh.out, "error:", err)
		}
		fmt.Fprint(sh.out, "> ")
	}
	return sc.Err()
}

func (sh *shell) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)
	s := sh.session

	switch cmd {
	case "":
		return nil
	case "text":
		return sh.outcome(s.SetSearchTerm(ctx, rest))
	case "sort":
		if len(args) != 1 {
			return errors.New("usage: sort <order>")
		}
		return sh.outcome(s.SetSort(ctx, args[0]))
	case "type":
		if len(args) != 1 {
			return errors.New("usage: type <kind>")
		}
		return sh.outcome(s.ToggleDocumentType(ctx, args[0]))
	case "dates":
		if len(args) != 2 {
			return errors.New("usage: dates <after> <before>")
		}
		return sh.outcome(s.SetDateRange(ctx, openBound(args[0]), openBound(args[1])))
	case "near":
		return sh.near(ctx, args)
	case "nowhere":
		return sh.outcome(s.DiscardLocation(ctx))
	case "person", "org":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>|-", cmd)
		}
		return sh.outcome(s.SetFilter(ctx, filterKey(cmd), openBound(args[0])))
	case "find":
		return sh.find(ctx, args)
	case "submit":
		return sh.outcome(s.Submit(ctx))
	case "more":
		issued, err := s.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !issued {
			fmt.Fprintln(sh.out, "no more results")
		}
		return nil
	case "back":
		return sh.outcome(s.Back(ctx))
	case "go":
		if rest == "" {
			return errors.New("usage: go <url>")
		}
		return sh.outcome(s.Navigate(ctx, rest))
	case "query":
		q, err := s.QueryString(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, q)
		fmt.Fprintln(sh.out, history.URLFor(sh.actionPath, q))
		return nil
	case "state":
		return sh.state(ctx)
	case "wait":
		wctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return s.Wait(wctx)
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (sh *shell) outcome(out facetsearch.Outcome, err error) error {
	if err != nil {
		return err
	}
	switch out {
	case facetsearch.OutcomeDuplicate:
		fmt.Fprintln(sh.out, "unchanged")
	case facetsearch.OutcomeEmpty:
		fmt.Fprintln(sh.out, "empty query")
	}
	return nil
}

func (sh *shell) near(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: near <lat> <lng> [radius]")
	}
	p, err := geo.Parse(args[0], args[1])
	if err != nil {
		return err
	}
	radius := sh.defaultRadius
	if radius <= 0 {
		radius = facet.DefaultRadius
	}
	if len(args) == 3 {
		if radius, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("radius: %w", err)
		}
	}
	return sh.outcome(sh.session.SetLocation(ctx, p.Lat, p.Lng, radius))
}

func (sh *shell) find(ctx context.Context, args []string) error {
	if len(args) < 1 || (args[0] != "person" && args[0] != "org") {
		return errors.New("usage: find person|org <text>")
	}
	items, err := sh.session.FilterItems(ctx, filterKey(args[0]), strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(sh.out, "%s\t%s\n", it.ID, it.Name)
	}
	return nil
}

func (sh *shell) state(ctx context.Context) error {
	snap, err := sh.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "query:   %s\n", snap.Query)
	fmt.Fprintf(sh.out, "url:     %s\n", snap.URL)
	fmt.Fprintf(sh.out, "sort:    %s\n", snap.Sort)
	if len(snap.DocumentTypes) > 0 {
		fmt.Fprintf(sh.out, "types:   %s\n", strings.Join(snap.DocumentTypes, ", "))
	}
	if snap.DateLabel != "" {
		fmt.Fprintf(sh.out, "dates:   %s\n", snap.DateLabel)
	}
	if loc := snap.Location; loc != nil {
		label := loc.Description
		if label == "" {
			label = loc.Lat + ", " + loc.Lng
		}
		fmt.Fprintf(sh.out, "near:    %s (%d m)\n", label, loc.Radius)
	}
	for _, key := range []string{query.KeyPerson, query.KeyOrganization} {
		if id := snap.Filters[key]; id != "" {
			fmt.Fprintf(sh.out, "%-8s %s\n", key+":", id)
		}
	}
	fmt.Fprintf(sh.out, "results: %d of %d\n", snap.Rendered, snap.TotalResults)
	if snap.LastError != nil {
		fmt.Fprintf(sh.out, "error:   %v\n", snap.LastError)
	}
	return nil
}

func filterKey(cmd string) string {
	if cmd == "org" {
		return query.KeyOrganization
	}
	return query.KeyPerson
}

func openBound(v string) string {
	if v == "-" {
		return ""
	}
	return v
}
