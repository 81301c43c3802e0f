package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"github.com/jmerrifield20/HospitalLedger/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

const defaultServerURL = "http://localhost:8080"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliOptions holds the persistent flags shared by all subcommands.
type cliOptions struct {
	serverURL string
	cfgFile   string
	format    string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Hospital ledger CLI",
		Long: `ledgerctl records patient visits on a hospital ledger server and
searches a patient's visit history.

Each visit is stamped with a SHA-256 digest of name|treatment|cost|date.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.cfgFile != "" {
				viper.SetConfigFile(opts.cfgFile)
			} else {
				home, _ := os.UserHomeDir()
				viper.AddConfigPath(home + "/.ledgerctl")
				viper.SetConfigName("config")
				viper.SetConfigType("yaml")
			}
			viper.AutomaticEnv()
			_ = viper.ReadInConfig()

			if opts.serverURL == "" {
				opts.serverURL = viper.GetString("server_url")
			}
			if opts.serverURL == "" {
				opts.serverURL = defaultServerURL
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default ~/.ledgerctl/config.yaml)")
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "Ledger server URL (default "+defaultServerURL+")")
	root.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format: text or json")

	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newSearchCmd(opts))
	root.AddCommand(newDigestCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the ledgerctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledgerctl %s\n", version)
		},
	})
	return root
}

// ── add ──────────────────────────────────────────────────────────────────────

func newAddCmd(opts *cliOptions) *cobra.Command {
	var req client.VisitRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a patient visit",
		Example: `  ledgerctl add --name "John Doe" --treatment "X-Ray" --cost 150 --date 2024-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(opts.serverURL)
			if err != nil {
				return err
			}
			res, err := c.AddVisit(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("add visit: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return printJSON(out, res)
			}
			if res.Status == string(ledger.StatusCreated) {
				fmt.Fprintf(out, "Adding new visit record for %s.\n", res.Record.PatientKey)
			} else {
				fmt.Fprintf(out, "Updating visit record for %s.\n", res.Record.PatientKey)
			}
			fmt.Fprintf(out, "Visit added for %s on %s for treatment %s costing %s.\n",
				res.Record.PatientKey, res.Record.DateOfVisit, res.Record.Treatment, ledger.FormatCost(res.Record.Cost))
			fmt.Fprintf(out, "Visit hash: %s\n", res.Record.Digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PatientName, "name", "", "Patient name")
	cmd.Flags().StringVar(&req.Treatment, "treatment", "", "Treatment received")
	cmd.Flags().Float64Var(&req.Cost, "cost", 0, "Cost of the treatment")
	cmd.Flags().StringVar(&req.DateOfVisit, "date", time.Now().Format("2006-01-02"), "Date of visit (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("treatment")
	_ = cmd.MarkFlagRequired("cost")
	return cmd
}

// ── search ───────────────────────────────────────────────────────────────────

func newSearchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <patient name>",
		Short: "List a patient's recorded visits, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(opts.serverURL)
			if err != nil {
				return err
			}
			name := args[0]
			visits, err := c.FindVisits(cmd.Context(), name)
			if errors.Is(err, client.ErrPatientNotFound) {
				return fmt.Errorf("patient %s not found in the ledger", ledger.PatientKey(name))
			}
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return printJSON(out, visits)
			}
			fmt.Fprintf(out, "Visit records for %s:\n", ledger.PatientKey(name))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTREATMENT\tCOST\tHASH")
			for _, v := range visits {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.DateOfVisit, v.Treatment, ledger.FormatCost(v.Cost), v.Digest)
			}
			return w.Flush()
		},
	}
}

// ── digest ───────────────────────────────────────────────────────────────────

func newDigestCmd(opts *cliOptions) *cobra.Command {
	var v ledger.Visit

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Compute a visit digest locally without contacting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := ledger.ComputeDigest(v.PatientName, v.Treatment, v.Cost, v.DateOfVisit)
			if opts.format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"digest": d})
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().StringVar(&v.PatientName, "name", "", "Patient name")
	cmd.Flags().StringVar(&v.Treatment, "treatment", "", "Treatment received")
	cmd.Flags().Float64Var(&v.Cost, "cost", 0, "Cost of the treatment")
	cmd.Flags().StringVar(&v.DateOfVisit, "date", "", "Date of visit (YYYY-MM-DD)")
	return cmd
}

// ── stats ────────────────────────────────────────────────────────────────────

func newStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show patient and visit counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(opts.serverURL)
			if err != nil {
				return err
			}
			o, err := c.Overview(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			if opts.format == "json" {
				return printJSON(cmd.OutOrStdout(), o)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Patients: %d\nVisits:   %d\n", o.Patients, o.Visits)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

