package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"qrshield/internal/assess"
	"qrshield/internal/config"
	"qrshield/internal/decoder"
	"qrshield/internal/logging"
	"qrshield/internal/models"
	"qrshield/internal/session"
	"qrshield/internal/store"
)

var (
	serverURL string
	dataDir   string
	token     string
	noColor   bool
	quiet     bool
)

func main() {
	root := &cobra.Command{
		Use:   "qrscan",
		Short: "Scan QR codes and assess the embedded URLs for security risks",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Assessment server base URL")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory for history and block list")
	root.PersistentFlags().StringVar(&token, "token", "", "Bearer token for the assessment server")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the banner")

	root.AddCommand(scanCmd(), checkCmd(), historyCmd(), blockedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDataDir() string {
	return config.Default().Storage.Dir
}

func newSession() (*session.Session, error) {
	logger := logging.Init(config.LoggingConfig{Level: "warn"})
	st, err := store.Open(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	var opts []assess.Option
	if token != "" {
		opts = append(opts, assess.WithToken(token))
	}
	client := assess.New(serverURL, logger, opts...)
	return session.New(st, client, logger, session.WithAlertFunc(printAlert)), nil
}

func banner() {
	if quiet {
		return
	}
	figure.NewFigure("qrshield", "", true).Print()
	fmt.Println()
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>...",
		Short: "Decode QR codes from image files and assess the embedded URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			sess, err := newSession()
			if err != nil {
				return err
			}

			// Decode concurrently; a file without a code is a notice, not
			// an error, and takes no state action.
			qr := decoder.NewTryHarder()
			payloads := make([]string, len(args))
			g := new(errgroup.Group)
			g.SetLimit(4)
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					payload, err := qr.DecodeFile(path)
					if errors.Is(err, decoder.ErrNoCode) {
						fmt.Printf("%s: no QR code found in this image\n", filepath.Base(path))
						return nil
					}
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					payloads[i] = payload
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			// Submissions stay sequential: one assessment in flight at a time.
			for _, payload := range payloads {
				if payload == "" {
					continue
				}
				result, err := sess.Submit(cmd.Context(), payload)
				if err != nil {
					return err
				}
				printResult(result)
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Assess a manually entered URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			sess, err := newSession()
			if err != nil {
				return err
			}
			result, err := sess.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show past scan results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession()
			if err != nil {
				return err
			}
			results := sess.History()
			if len(results) == 0 {
				fmt.Println("No scans yet.")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%s  %3d  %-10s  %s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					r.RiskScore, levelColor(r.RiskLevel).Sprint(r.RiskLevel), r.URL)
			}
			return nil
		},
	}
}

func blockedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocked",
		Short: "List blocked URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession()
			if err != nil {
				return err
			}
			urls := sess.Blocked()
			if len(urls) == 0 {
				fmt.Println("No blocked URLs.")
				return nil
			}
			for _, u := range urls {
				fmt.Println(u)
			}
			return nil
		},
	}
}

func levelColor(level models.RiskLevel) *color.Color {
	switch level {
	case models.RiskSafe:
		return color.New(color.FgGreen)
	case models.RiskHighRisk:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

func printResult(r models.ScanResult) {
	c := levelColor(r.RiskLevel)
	fmt.Printf("\nURL:      %s\n", r.URL)
	fmt.Printf("Verdict:  %s (score %d/100)\n", c.Sprint(r.RiskLevel), r.RiskScore)
	if len(r.Indicators) == 0 {
		fmt.Println("Threats:  none found")
	} else {
		fmt.Println("Threats:")
		for _, ind := range r.Indicators {
			fmt.Printf("  - %s\n", ind)
		}
	}
	if r.Recommendation != "" {
		fmt.Printf("Advice:   %s\n", r.Recommendation)
	}
	if r.Analysis != "" {
		fmt.Printf("Analysis: %s\n", r.Analysis)
	}
}

func printAlert(r models.ScanResult) {
	color.New(color.FgRed, color.Bold).Printf("\n!! HIGH RISK: %s has been blocked\n", r.URL)
}
