// Package cli implements pharmactl, a command-line view of the pricing
// dataset that shares the dashboard's filters, views and exports.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/JonMunkholm/PharmaDash/internal/dataset"
	"github.com/JonMunkholm/PharmaDash/internal/filter"
	"github.com/JonMunkholm/PharmaDash/internal/logging"
	"github.com/spf13/cobra"
)

// stdioPath selects stdin for --data and stdout for export --out.
const stdioPath = "-"

// app holds the flags shared by every subcommand.
type app struct {
	stdin io.Reader

	dataPath string
	logLevel string

	materialType string
	vendor       string
	gmp          string
	priceTier    string
	currency     string
}

// NewRootCmd builds the pharmactl command tree. DATA_PATH (or CSV_PATH)
// supplies the default for --data.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin}

	root := &cobra.Command{
		Use:           "pharmactl",
		Short:         "Query pharmaceutical material pricing data",
		Long:          `pharmactl loads a material pricing CSV and prints the same metrics, views and exports as the web dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(stderr, a.logLevel, "text")
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defaultPath := os.Getenv("DATA_PATH")
	if defaultPath == "" {
		defaultPath = os.Getenv("CSV_PATH")
	}

	f := root.PersistentFlags()
	f.StringVar(&a.dataPath, "data", defaultPath, `pricing CSV path, or "-" for stdin (default $DATA_PATH)`)
	f.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.StringVar(&a.materialType, "material-type", "", "filter by material type")
	f.StringVar(&a.vendor, "vendor", "", "filter by vendor")
	f.StringVar(&a.gmp, "gmp", "", "filter by GMP compliance (Yes or No)")
	f.StringVar(&a.priceTier, "price-tier", "", "filter by price tier")
	f.StringVar(&a.currency, "currency", "", "filter by currency")

	root.AddCommand(
		newSummaryCmd(a),
		newOptionsCmd(a),
		newViewCmd(a),
		newRowsCmd(a),
		newExportCmd(a),
	)
	return root
}

// Execute runs pharmactl against the process's standard streams and
// returns the exit code.
func Execute() int {
	cmd := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

// printError shows the mapped message for known failures and the raw
// error otherwise.
func printError(w io.Writer, err error) {
	ue := core.NewUserError(err)
	if !core.IsUserFacing(err) {
		fmt.Fprintln(w, "✗ Error:", err)
		return
	}
	fmt.Fprintf(w, "✗ Error: %s (Code: %s)\n", ue.User.Message, ue.User.Code)
	if ue.User.Action != "" {
		fmt.Fprintln(w, "  "+ue.User.Action)
	}
	fmt.Fprintln(w, "  Detail:", ue.Technical)
}

// service loads the dataset named by --data.
func (a *app) service() (*core.Service, error) {
	if a.dataPath == "" {
		return nil, errors.New("no data file: pass --data or set DATA_PATH")
	}

	var (
		t   *dataset.Table
		err error
	)
	if a.dataPath == stdioPath {
		t, err = dataset.Read(a.stdin, "stdin")
	} else {
		t, err = dataset.Load(a.dataPath)
	}
	if err != nil {
		return nil, err
	}
	return core.NewService(t), nil
}

// constraints converts the filter flags into Constraints.
func (a *app) constraints() filter.Constraints {
	q := url.Values{}
	q.Set(filter.ParamMaterialType, a.materialType)
	q.Set(filter.ParamVendor, a.vendor)
	q.Set(filter.ParamGMP, a.gmp)
	q.Set(filter.ParamPriceTier, a.priceTier)
	q.Set(filter.ParamCurrency, a.currency)
	return filter.FromQuery(q)
}

// warn prints filter warnings to the command's error stream.
func warn(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning:", w)
	}
}
