package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/limpo1989/growth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the demonstration and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("growth", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	steps := flags.IntP("count", "n", growth.DefaultSteps, "number of squares to append")
	reserve := flags.IntP("reserve", "r", 0, "capacity to reserve before the first append")
	policyName := flags.StringP("policy", "p", "doubling",
		"growth policy, one of "+strings.Join(growth.PolicyNames(), ", "))
	summary := flags.Bool("summary", false, "print the capacity epochs as a tree to stderr")
	verbose := flags.BoolP("verbose", "v", false, "trace reallocations")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := log.New(stderr, "growth: ", 0)
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	tracer := tracing.Select("growth")
	tracer.SetOutput(stderr)
	if *verbose {
		tracer.SetTraceLevel(tracing.LevelDebug)
	} else {
		tracer.SetTraceLevel(tracing.LevelError)
	}

	policy, err := growth.ParsePolicy(*policyName)
	if err != nil {
		logger.Println(err)
		return 2
	}

	d := growth.NewDemonstrator(
		growth.WithSteps(*steps),
		growth.WithReserve(*reserve),
		growth.WithGrowth(policy),
	)
	report, err := d.Run(stdout)
	if err != nil {
		logger.Println(err)
		return 1
	}

	if *summary {
		fmt.Fprint(stderr, report.Tree())
	}
	return 0
}
