// Command countries lists and looks up countries from the command line.
//
//	countries list [-search s] [-region r] [-sort name-asc|name-desc] [-page n]
//	countries show NAME
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mohammed-shakir/country-catalog/internal/catalog"
	"github.com/mohammed-shakir/country-catalog/internal/core/config"
	"github.com/mohammed-shakir/country-catalog/internal/core/httpclient"
	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
	"github.com/mohammed-shakir/country-catalog/internal/detail"
	"github.com/mohammed-shakir/country-catalog/internal/logger"
	"github.com/mohammed-shakir/country-catalog/internal/query"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: countries list [-search s] [-region r] [-sort name-asc|name-desc] [-page n]")
	_, _ = fmt.Fprintln(w, "       countries show NAME")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	cfg := config.FromEnv()
	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Component: "cli"}, stderr)
	log := logger.NewSlog(&zl)

	up, err := upstream.New(log, httpclient.NewOutbound(cfg.UpstreamTimeout), cfg.CountriesAPIURL)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	switch args[0] {
	case "list":
		return list(ctx, up, args[1:], stdout, stderr)
	case "show":
		if len(args) < 2 {
			usage(stderr)
			return 2
		}
		return show(ctx, detail.New(up, log), strings.Join(args[1:], " "), stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func list(ctx context.Context, up upstream.Fetcher, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	search := fs.String("search", "", "name substring (case-insensitive)")
	region := fs.String("region", string(model.RegionAll), "All, Africa, Americas, Asia, Europe or Oceania")
	sortKey := fs.String("sort", string(model.SortNameAsc), "name-asc or name-desc")
	page := fs.Int("page", 0, "zero-based page index")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	r, err := model.ParseRegion(*region)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	k, err := model.ParseSortKey(*sortKey)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	l := catalog.New(up, catalog.Options{})
	cat, err := l.Load(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, l.UserMessage())
		return 1
	}

	crit := model.QueryCriteria{SearchTerm: *search, Region: r, Sort: k, Page: *page}
	v := query.ComputeResultView(cat, crit)
	printView(stdout, v, crit.Page)
	return 0
}

func printView(w io.Writer, v model.ResultView, page int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tREGION\tAREA")
	for _, c := range v.Items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%.0f\n", c.Name, c.Region, c.Area)
	}
	_ = tw.Flush()

	switch {
	case v.TotalPages == 0:
		_, _ = fmt.Fprintln(w, "no matches")
	case v.Unpaginated:
		_, _ = fmt.Fprintf(w, "page %d is out of range; showing all %d matches\n", page, len(v.Items))
	default:
		_, _ = fmt.Fprintf(w, "page %d/%d\n", page+1, v.TotalPages)
	}
}

func show(ctx context.Context, d *detail.Loader, name string, stdout, stderr io.Writer) int {
	v := d.Fetch(ctx, name)
	if v.State.Status != model.StatusReady {
		_, _ = fmt.Fprintln(stderr, v.State.UserMessage())
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%s\nRegion: %s\nArea: %.0f\n", v.Country.Name, v.Country.Region, v.Country.Area)
	return 0
}
