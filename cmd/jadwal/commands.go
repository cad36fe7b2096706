package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/config"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

func (a *App) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("database schema up to date", "storage", rt.cfg.Storage, "dsn", rt.cfg.SQLiteDSN)
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (a *App) addUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		role     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user account",
		Example: `  jadwal adduser --email siti@kampus.ac.id --name "Siti Rahma" --password rahasia123
  jadwal adduser --email admin@kampus.ac.id --name Admin --role admin --password rahasia123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.cfg.Storage == config.StorageMemory {
				return errors.New("adduser needs persistent storage; memory accounts vanish when the command exits (use JADWAL_ADMIN_EMAIL with serve instead)")
			}

			user, err := rt.users.CreateUser(cmd.Context(), application.CreateUserParams{
				Principal: operator,
				Input: application.UserInput{
					Email:       strings.ToLower(strings.TrimSpace(email)),
					DisplayName: name,
					Role:        application.Role(strings.ToLower(strings.TrimSpace(role))),
					Password:    password,
				},
			})
			if err != nil {
				return describeError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&role, "role", string(application.RoleStudent), "student, lecturer or admin")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (a *App) checkCmd() *cobra.Command {
	var (
		userID  string
		day     string
		start   string
		end     string
		exclude string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a proposed slot against a user's timetable",
		Example: `  jadwal check --user 3f1c... --day senin --start 08:00 --end 10:00
  jadwal check --user 3f1c... --day 5 --start 13:00 --end 24:00 --exclude 9a2b...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			weekday, err := parseWeekday(day)
			if err != nil {
				return err
			}
			startOffset, err := scheduler.ParseDayOffset(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			endOffset, err := scheduler.ParseEndOffset(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}

			rt, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			warnings, err := rt.schedule.CheckConflicts(cmd.Context(), application.CheckConflictsParams{
				Principal:      operator,
				UserID:         userID,
				DayOfWeek:      weekday,
				Start:          startOffset,
				End:            endOffset,
				ExcludeEventID: exclude,
			})
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			if len(warnings) == 0 {
				fmt.Fprintln(out, "no conflicts")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintf(out, "conflict: %s %s-%s %q (%s)\n", dayName(w.DayOfWeek), w.Start, w.End, w.Title, w.EventID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner of the timetable (required)")
	cmd.Flags().StringVar(&day, "day", "", "Day of week: 0-6 (0 = Sunday), English or Indonesian name (required)")
	cmd.Flags().StringVar(&start, "start", "", "Start time HH:MM (required)")
	cmd.Flags().StringVar(&end, "end", "", "End time HH:MM, 24:00 allowed (required)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Event id to leave out of the comparison")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

var indonesianDays = [...]string{"minggu", "senin", "selasa", "rabu", "kamis", "jumat", "sabtu"}

// parseWeekday accepts 0-6, English day names and Indonesian day names.
func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("day %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	v = strings.ReplaceAll(v, "'", "")
	for d := time.Sunday; d <= time.Saturday; d++ {
		if v == strings.ToLower(d.String()) || v == indonesianDays[d] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", value)
}

func dayName(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return strconv.Itoa(int(day))
	}
	return day.String()
}

// describeError flattens field errors into a single line for the terminal.
func describeError(err error) error {
	var validation *application.ValidationError
	if !errors.As(err, &validation) || len(validation.FieldErrors) == 0 {
		return err
	}
	fields := make([]string, 0, len(validation.FieldErrors))
	for field := range validation.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+validation.FieldErrors[field])
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
