package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/emonupg/essync/internal/core/domain"
)

var (
	connHost        string
	connUsername    string
	connCertificate string
	connAskPassword bool
)

var (
	contentDriver      string
	contentBaseURL     string
	contentFixturesDir string
	contentAskToken    bool
)

var (
	indexingInterval    int
	indexingRateLimit   float64
	indexingFullRebuild int
	indexingCron        string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the Elasticsearch connection, the content repository
and indexing options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsConnectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Configure the Elasticsearch connection",
	Long: `Set the Elasticsearch host and credentials.

The certificate may be PEM text or a path to a PEM file. With --password the
password is read from the terminal without echo.`,
	RunE: runSettingsConnection,
}

var settingsContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Configure the content repository",
	Long: `Select where content is read from.

Available drivers:
  strapi   - Strapi REST API (requires --base-url)
  fixtures - YAML fixture files (requires --fixtures-dir)`,
	RunE: runSettingsContent,
}

var settingsIndexingCmd = &cobra.Command{
	Use:   "indexing",
	Short: "Configure indexing intervals and throttling",
	RunE:  runSettingsIndexing,
}

func init() {
	f := settingsConnectionCmd.Flags()
	f.StringVar(&connHost, "host", "", "Elasticsearch URL, e.g. https://localhost:9200")
	f.StringVar(&connUsername, "username", "", "basic auth username")
	f.StringVar(&connCertificate, "certificate", "", "CA certificate (PEM text or file path)")
	f.BoolVar(&connAskPassword, "password", false, "prompt for the basic auth password")

	f = settingsContentCmd.Flags()
	f.StringVar(&contentDriver, "driver", "", "content driver (strapi, fixtures)")
	f.StringVar(&contentBaseURL, "base-url", "", "Strapi base URL")
	f.StringVar(&contentFixturesDir, "fixtures-dir", "", "directory of YAML fixtures")
	f.BoolVar(&contentAskToken, "token", false, "prompt for the Strapi API token")

	f = settingsIndexingCmd.Flags()
	f.IntVar(&indexingInterval, "interval", 0, "minutes between queue drains")
	f.Float64Var(&indexingRateLimit, "rate-limit", -1, "document writes per second during rebuilds (0 = unlimited)")
	f.IntVar(&indexingFullRebuild, "full-rebuild-hours", -1, "hours between full rebuilds (0 = disabled)")
	f.StringVar(&indexingCron, "cron", "", "cron schedule shown in status output")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsConnectionCmd)
	settingsCmd.AddCommand(settingsContentCmd)
	settingsCmd.AddCommand(settingsIndexingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(heading("Elasticsearch"))
	cmd.Println(field("Host:", settings.Connection.Host))
	cmd.Println(field("Username:", settings.Connection.Username))
	cmd.Println(field("Password:", maskSecret(settings.Connection.Password)))
	cmd.Println(field("Certificate:", summariseCertificate(settings.Connection.Certificate)))
	cmd.Println(field("Index alias:", settings.IndexAlias))
	cmd.Println(field("Global alias:", settings.GlobalAlias))
	cmd.Println()

	cmd.Println(heading("Content"))
	cmd.Println(field("Driver:", string(settings.Content.Driver)))
	switch settings.Content.Driver {
	case domain.ContentDriverStrapi:
		cmd.Println(field("Base URL:", settings.Content.BaseURL))
		cmd.Println(field("Token:", maskSecret(settings.Content.Token)))
	case domain.ContentDriverFixtures:
		cmd.Println(field("Fixtures dir:", settings.Content.FixturesDir))
	}
	cmd.Println()

	cmd.Println(heading("Indexing"))
	cmd.Println(field("Drain every:", settings.Indexing.Interval.String()))
	rate := "unlimited"
	if settings.Indexing.RateLimit > 0 {
		rate = strconv.FormatFloat(settings.Indexing.RateLimit, 'f', -1, 64) + " docs/s"
	}
	cmd.Println(field("Rate limit:", rate))
	rebuild := "disabled"
	if settings.Indexing.FullRebuildInterval > 0 {
		rebuild = "every " + settings.Indexing.FullRebuildInterval.String()
	}
	cmd.Println(field("Full rebuild:", rebuild))
	cmd.Println(field("Schedule:", settings.Indexing.CronSchedule))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'essync settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsConnection(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	conn := settings.Connection
	if connHost != "" {
		conn.Host = connHost
	}
	if connUsername != "" {
		conn.Username = connUsername
	}
	if connCertificate != "" {
		conn.Certificate = connCertificate
	}
	if connAskPassword {
		cmd.Print("Password: ")
		conn.Password = readPassword(cmd, bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := settingsService.SetConnection(conn); err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	cmd.Printf("Elasticsearch connection set to %s\n", conn.Host)
	return nil
}

func runSettingsContent(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if contentDriver != "" {
		driver := domain.ContentDriver(contentDriver)
		if !driver.IsValid() {
			return fmt.Errorf("unknown content driver %q: %w", contentDriver, domain.ErrInvalidInput)
		}
		settings.Content.Driver = driver
	}
	if contentBaseURL != "" {
		settings.Content.BaseURL = contentBaseURL
	}
	if contentFixturesDir != "" {
		settings.Content.FixturesDir = contentFixturesDir
	}
	if contentAskToken {
		cmd.Print("API token: ")
		settings.Content.Token = readPassword(cmd, bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Content driver set to %s\n", settings.Content.Driver)
	return nil
}

func runSettingsIndexing(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if indexingInterval > 0 {
		settings.Indexing.Interval = time.Duration(indexingInterval) * time.Minute
	}
	if indexingRateLimit >= 0 {
		settings.Indexing.RateLimit = indexingRateLimit
	}
	if indexingFullRebuild >= 0 {
		settings.Indexing.FullRebuildInterval = time.Duration(indexingFullRebuild) * time.Hour
	}
	if indexingCron != "" {
		settings.Indexing.CronSchedule = indexingCron
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Indexing settings saved.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(heading("essync settings wizard"))
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Elasticsearch")
	settings.Connection.Host = prompt(cmd, reader, "Host", settings.Connection.Host)
	settings.Connection.Username = prompt(cmd, reader, "Username", settings.Connection.Username)
	if settings.Connection.Username != "" {
		cmd.Print("Password (leave empty to keep): ")
		settings.Connection.Password = readPassword(cmd, reader)
		cmd.Println()
	}
	settings.Connection.Certificate = prompt(cmd, reader, "Certificate", settings.Connection.Certificate)
	cmd.Println()

	cmd.Println("Step 2: Content repository")
	drivers := []domain.ContentDriver{domain.ContentDriverStrapi, domain.ContentDriverFixtures}
	current := 1
	for i, d := range drivers {
		cmd.Printf("  %d. %s\n", i+1, d)
		if d == settings.Content.Driver {
			current = i + 1
		}
	}
	cmd.Printf("Enter choice [%d]: ", current)
	settings.Content.Driver = drivers[parseChoice(readLine(reader), len(drivers), current)-1]

	switch settings.Content.Driver {
	case domain.ContentDriverStrapi:
		settings.Content.BaseURL = prompt(cmd, reader, "Base URL", settings.Content.BaseURL)
		cmd.Print("API token (leave empty to keep): ")
		settings.Content.Token = readPassword(cmd, reader)
		cmd.Println()
	case domain.ContentDriverFixtures:
		settings.Content.FixturesDir = prompt(cmd, reader, "Fixtures dir", settings.Content.FixturesDir)
	}
	cmd.Println()

	cmd.Println("Step 3: Indexing")
	minutes := int(settings.Indexing.Interval / time.Minute)
	cmd.Printf("Drain interval in minutes [%d]: ", minutes)
	settings.Indexing.Interval = time.Duration(parseChoice(readLine(reader), 24*60, minutes)) * time.Minute
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Saved, but the configuration is incomplete: %v\n", err)
		return nil
	}
	cmd.Println("Settings saved.")
	return nil
}

// Helper functions.

// prompt asks for a value, keeping current when the answer is empty.
func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when input is the terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if isTerminalInput(cmd.InOrStdin()) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func isTerminalInput(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && f == os.Stdin && term.IsTerminal(int(f.Fd()))
}

func maskSecret(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func summariseCertificate(cert string) string {
	switch {
	case cert == "":
		return ""
	case strings.Contains(cert, "-----BEGIN"):
		return "inline PEM"
	default:
		return cert
	}
}
