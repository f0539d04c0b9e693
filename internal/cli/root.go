// Package cli implements attendctl, a personal attendance tracker over a local store.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"selfattend/internal/attendance"
	"selfattend/internal/config"
	"selfattend/internal/logs"
	"selfattend/internal/session"
	"selfattend/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "attendctl",
	Short: "Mark the days you were present and review your attendance",
	Long: `attendctl keeps a personal attendance ledger: one mark per calendar day,
toggled on and off, with per-month charts and CSV export. Ledgers are kept
per user in a local SQLite file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("user", defaultUser(), "user id whose ledger to use")
	rootCmd.PersistentFlags().String("name", "", "display name for the user")
	rootCmd.PersistentFlags().String("db", config.DefaultSQLitePath(), "path to the SQLite ledger store")
	rootCmd.PersistentFlags().String("tz", "", "IANA timezone for calendar days (default: local)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "me"
}

// openSession logs the --user into a session over the --db store.
func openSession(cmd *cobra.Command) (*session.Context, func(), error) {
	flags := cmd.Flags()
	user, _ := flags.GetString("user")
	name, _ := flags.GetString("name")
	dbPath, _ := flags.GetString("db")
	tz, _ := flags.GetString("tz")
	if user == "" {
		return nil, nil, errors.New("--user is required")
	}

	loc, err := config.App{Timezone: tz}.Location()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logs.NewWithWriter(cmd.ErrOrStderr(), "warn", true)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kv, err := store.NewSQLite(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	sc := session.New(attendance.NewRepository(kv, loc, logger), session.WithLogger(logger))
	if name == "" {
		name = user
	}
	if err := sc.Login(ctx, session.Identity{ID: user, DisplayName: name}); err != nil {
		kv.Close()
		return nil, nil, err
	}
	closer := func() {
		sc.Logout()
		kv.Close()
	}
	return sc, closer, nil
}

// dateArg parses args[0] as yyyy-MM-dd, or returns today.
func dateArg(sc *session.Context, args []string) (time.Time, error) {
	today := sc.Today()
	if len(args) == 0 {
		return time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()), nil
	}
	d, err := attendance.ParseDate(args[0], today.Location())
	if err != nil {
		return time.Time{}, errors.Errorf("date %q must be YYYY-MM-DD", args[0])
	}
	return d, nil
}

// monthArg parses args[0] as yyyy-MM, or returns the current month.
func monthArg(sc *session.Context, args []string) (attendance.YearMonth, error) {
	if len(args) == 0 {
		return attendance.YearMonthOf(sc.Today()), nil
	}
	return attendance.ParseYearMonth(args[0])
}
