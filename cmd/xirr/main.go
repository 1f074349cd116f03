package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmtruffa/xirr"
	"github.com/jmtruffa/xirr/internal/ingest"
)

func main() {
	var (
		file       = flag.String("file", "", "Cash-flow file (.csv or .xls) with date and amount columns")
		guess      = flag.Float64("guess", xirr.DefaultGuess, "Starting rate for Newton-Raphson")
		projection = flag.Bool("projection", false, "Print the wealth projection at the solved rate")
		end        = flag.String("end", "", "Extra projection date (YYYY-MM-DD)")
		symbol     = flag.String("symbol", "", "Currency symbol for abbreviated amounts")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	var endDate *time.Time
	if *end != "" {
		d, err := xirr.ParseFecha(*end)
		if err != nil {
			log.WithError(err).Fatal("invalid -end date")
		}
		t := d.Time()
		endDate = &t
	}

	flows, err := ingest.ReadFile(*file)
	if err != nil {
		log.WithError(err).WithField("file", *file).Fatal("failed to read cash flows")
	}
	log.WithField("flows", len(flows)).Debug("cash flows loaded")

	if err := run(os.Stdout, log, flows, *guess, *projection, endDate, *symbol); err != nil {
		if errors.Is(err, xirr.ErrNoSolution) {
			os.Exit(1)
		}
		log.WithError(err).Fatal("xirr failed")
	}
}

func run(w io.Writer, log *logrus.Logger, flows []xirr.CashFlow, guess float64, projection bool, end *time.Time, symbol string) error {
	series, err := xirr.NewSeries(flows)
	if err != nil {
		fmt.Fprintf(w, "XIRR: %s\n", xirr.Placeholder)
		log.WithError(err).Warn("no rate for these cash flows")
		return err
	}

	opts := xirr.DefaultOptions()
	opts.Guess = guess
	res, err := xirr.Solve(series, opts)
	sum := xirr.Summarize(series)

	if err != nil {
		fmt.Fprintf(w, "XIRR: %s\n", xirr.Placeholder)
	} else {
		fmt.Fprintf(w, "XIRR: %s (%s, %d iterations)\n", xirr.FormatRate(res.Rate), res.Method, res.Iterations)
	}
	fmt.Fprintf(w, "Period: %s to %s, %d flows\n", sum.First, sum.Last, sum.Flows)
	fmt.Fprintf(w, "Invested: %s  Returned: %s  Net gain: %s\n",
		sum.Invested.StringFixed(2), sum.Returned.StringFixed(2), sum.NetGain.StringFixed(2))
	if err != nil {
		log.WithError(err).Warn("no rate for these cash flows")
		return err
	}

	if !projection {
		return nil
	}
	points, err := xirr.WealthProjection(series, res.Rate, end)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tInvested\tValue\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", p.Date, xirr.FormatShort(p.Invested, symbol), xirr.FormatShort(p.Value, symbol))
	}
	return tw.Flush()
}
