package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/driver"
	"github.com/harridge/fetchmill/internal/sched"
)

const fetchUsage = `usage: fetchmill fetch (<crawl-id> | -all) [-threads N] [-noParsing] [-resume]

    <crawl-id>  fetch only pages generated in this crawl cycle
    -all        fetch all generated pages regardless of cycle
    -threads N  override the configured fetch thread count
    -noParsing  skip the parse stage for this run
    -resume     skip pages that already carry a fetch mark`

// newFetchCmd creates the 'fetch' subcommand. Flag parsing is disabled
// on purpose: the command keeps the single-dash argument convention of
// the wider crawl tooling, which does not match POSIX flag syntax.
func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "fetch (<crawl-id> | -all) [-threads N] [-noParsing] [-resume]",
		Short:              "Runs one fetch pass over the generated pages",
		DisableFlagParsing: true,
		RunE:               runFetchCommand,
	}
	return cmd
}

func runFetchCommand(cmd *cobra.Command, args []string) error {
	opts, err := parseFetchArgs(args)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), fetchUsage)
		return err
	}

	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	result, err := appInstance.NewDriver().Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	logger.Info("fetch command finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("skipped", result.Skipped),
		zap.Int("dispatched", result.Dispatched),
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", result.Failed),
	)
	return nil
}

// parseFetchArgs interprets the positional crawl scope and the
// single-dash options following it.
func parseFetchArgs(args []string) (driver.Options, error) {
	if len(args) == 0 {
		return driver.Options{}, fmt.Errorf("missing crawl id")
	}

	scopeArg := args[0]
	if scopeArg != sched.AllCrawlsArg && strings.HasPrefix(scopeArg, "-") {
		return driver.Options{}, fmt.Errorf("first argument must be a crawl id or %s, got %q", sched.AllCrawlsArg, scopeArg)
	}

	opts := driver.Options{Scope: sched.ParseScope(scopeArg)}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-threads":
			i++
			if i >= len(rest) {
				return driver.Options{}, fmt.Errorf("-threads requires a value")
			}
			n, err := strconv.Atoi(rest[i])
			if err != nil || n <= 0 {
				return driver.Options{}, fmt.Errorf("-threads requires a positive integer, got %q", rest[i])
			}
			opts.Threads = n
		case "-noParsing":
			opts.NoParse = true
		case "-resume":
			opts.Resume = true
		default:
			return driver.Options{}, fmt.Errorf("unknown argument %q", rest[i])
		}
	}
	return opts, nil
}
