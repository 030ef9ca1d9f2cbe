// Package main is the entry point for the ihalemcp CLI.
//
// The binary bundles three MCP stdio servers (Turkish EKAP tenders, EU
// TED tenders, Google Places lead generation), a first-run setup wizard
// and a terminal tender viewer.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ihalemcp/internal/config"
	"ihalemcp/internal/credentials"
	"ihalemcp/internal/ekap"
	"ihalemcp/internal/logging"
	serverpkg "ihalemcp/internal/mcp"
	"ihalemcp/internal/places"
	"ihalemcp/internal/render"
	"ihalemcp/internal/ted"
	"ihalemcp/internal/tui/helpers"
	"ihalemcp/internal/tui/setupmenu"
	"ihalemcp/internal/watchlist"
)

var version = "1.0.0"

func main() {
	logger := logging.NewAppLogger()

	root := &cobra.Command{
		Use:           "ihalemcp",
		Short:         "MCP servers for Turkish and EU public tenders plus lead generation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(logger),
		newTEDCmd(logger),
		newLeadsCmd(logger),
		newSetupCmd(logger),
		newTenderCmd(logger),
	)

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfigOrDefaults returns the saved config, falling back to
// defaults so the servers run on machines configured purely through
// environment variables.
func loadConfigOrDefaults(logger *logging.AppLogger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("No configuration found, using defaults", "error", err)
		def := config.DefaultConfig()
		return &def
	}
	return cfg
}

func newServeCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the EKAP tender search MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults(logger)

			client := ekap.NewClient(logger)
			watch := watchlist.NewStore(cfg.StorageDir, logger)
			return serverpkg.NewEKAPServer(client, watch, logger).Serve()
		},
	}
}

func newTEDCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "ted",
		Short: "Run the EU TED tender search MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// TED works anonymously at reduced rate limits.
			apiKey := credentials.NewManager().TEDAPIKey()
			if apiKey == "" {
				logger.Info("No TED API key configured, using anonymous access")
			}

			client := ted.NewClient(apiKey, logger)
			return serverpkg.NewTEDServer(client, logger).Serve()
		},
	}
}

func newLeadsCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "leads",
		Short: "Run the Google Places lead generation MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, err := credentials.NewManager().MapsAPIKey()
			if err != nil {
				return err
			}

			client := places.NewClient(apiKey, logger)
			return serverpkg.NewLeadsServer(client, logger, nil).Serve()
		},
	}
}

func newSetupCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the interactive first-time setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := helpers.NewUIContext(0, 0, nil, logger)
			menu := setupmenu.NewSetupModel(ctx)
			program := tea.NewProgram(menu, tea.WithAltScreen())

			finalModel, err := program.Run()
			if err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			if finalModel.(*setupmenu.SetupModel).Cancelled {
				return fmt.Errorf("setup cancelled by user")
			}
			return nil
		},
	}
}

func newTenderCmd(logger *logging.AppLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "tender <tender-id>",
		Short: "Fetch tender details from EKAP and render them as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("tender id must be numeric, got %q", args[0])
			}

			client := ekap.NewClient(logger)
			details, err := client.TenderDetails(cmd.Context(), tenderID)
			if err != nil {
				return err
			}

			md := tenderMarkdown(details)
			fmt.Fprintln(cmd.OutOrStdout(), render.New(0).Markdown(md))
			return nil
		},
	}
}

// tenderMarkdown formats a tender detail record as a markdown document
// for terminal display.
func tenderMarkdown(d *ekap.TenderDetails) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "**IKN:** %s  \n", d.IKN)
	fmt.Fprintf(&b, "**Durum:** %s  \n", d.Status.Description)
	if d.BasicInfo.MethodDescription != "" {
		fmt.Fprintf(&b, "**Usul:** %s  \n", d.BasicInfo.MethodDescription)
	}
	if d.BasicInfo.TypeDescription != "" {
		fmt.Fprintf(&b, "**Tür:** %s  \n", d.BasicInfo.TypeDescription)
	}
	if d.BasicInfo.TenderDatetime != "" {
		fmt.Fprintf(&b, "**İhale Tarihi:** %s  \n", d.BasicInfo.TenderDatetime)
	}
	if d.BasicInfo.Location != "" {
		fmt.Fprintf(&b, "**İşin Yeri:** %s  \n", d.BasicInfo.Location)
	}

	if d.Authority.Name != "" {
		b.WriteString("\n## İdare\n\n")
		fmt.Fprintf(&b, "%s", d.Authority.Name)
		if d.Authority.Province != "" {
			fmt.Fprintf(&b, " — %s", d.Authority.Province)
			if d.Authority.District != "" {
				fmt.Fprintf(&b, "/%s", d.Authority.District)
			}
		}
		b.WriteString("\n")
		if d.Authority.Phone != "" {
			fmt.Fprintf(&b, "\nTelefon: %s\n", d.Authority.Phone)
		}
	}

	if len(d.Characteristics) > 0 {
		b.WriteString("\n## İhale Özellikleri\n\n")
		for _, c := range d.Characteristics {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if len(d.OKASCodes) > 0 {
		b.WriteString("\n## OKAS Kodları\n\n")
		for _, okas := range d.OKASCodes {
			fmt.Fprintf(&b, "- `%s` %s\n", okas.Code, okas.Name)
		}
	}

	if d.Announcements.TotalCount > 0 {
		b.WriteString("\n## İlanlar\n\n")
		fmt.Fprintf(&b, "%d ilan", d.Announcements.TotalCount)
		if len(d.Announcements.TypesAvailable) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(d.Announcements.TypesAvailable, ", "))
		}
		b.WriteString("\n")
	}

	if d.CancellationInfo != nil {
		b.WriteString("\n## İptal Bilgisi\n\n")
		if d.CancellationInfo.CancelledDate != "" {
			fmt.Fprintf(&b, "**Tarih:** %s  \n", d.CancellationInfo.CancelledDate)
		}
		if d.CancellationInfo.CancellationReason != "" {
			fmt.Fprintf(&b, "**Gerekçe:** %s\n", d.CancellationInfo.CancellationReason)
		}
	}

	return b.String()
}
