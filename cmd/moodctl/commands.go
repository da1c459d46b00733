package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/state"
)

// ---------------------------------------------------------------------------
// session commands

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("MOODBUDDY_PASSWORD")
			}
			return c.withSession(cmd, false, func(ctx context.Context, s *session) error {
				if err := s.app.Session().Login(ctx, email, password); err != nil {
					return failure(err, "Login failed")
				}
				u := s.app.Session().User()
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", u.Name, u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (env MOODBUDDY_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var req client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("MOODBUDDY_PASSWORD")
			}
			return c.withSession(cmd, false, func(ctx context.Context, s *session) error {
				if err := s.app.Session().Register(ctx, req); err != nil {
					return failure(err, "Registration failed")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", s.app.Session().User().Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password (env MOODBUDDY_PASSWORD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, false, func(ctx context.Context, s *session) error {
				s.app.Session().Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				u := s.app.Session().User()
				if done, err := c.printJSON(cmd.OutOrStdout(), u); done {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", u.Name, u.Email, u.ID)
				return nil
			})
		},
	}
}

func newProfileCmd(c *cli) *cobra.Command {
	var (
		u       client.ProfileUpdate
		profile client.Profile
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change account name, email or personal details",
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			if fl.Changed("first-name") || fl.Changed("last-name") || fl.Changed("dob") || fl.Changed("gender") {
				p := profile
				u.Profile = &p
			}
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				updated, err := s.app.Session().UpdateProfile(ctx, u)
				if err != nil {
					return failure(err, "Profile update failed")
				}
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, updated); done {
					return err
				}
				fmt.Fprintf(out, "Profile updated: %s <%s>\n", updated.Name, updated.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&u.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "New account email")
	cmd.Flags().StringVar(&profile.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&profile.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&profile.DateOfBirth, "dob", "", "Date of birth as YYYY-MM-DD")
	cmd.Flags().StringVar(&profile.Gender, "gender", "", "Gender")
	return cmd
}

func newPasswdCmd(c *cli) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if current == "" {
				current = os.Getenv("MOODBUDDY_PASSWORD")
			}
			if next == "" {
				next = os.Getenv("MOODBUDDY_NEW_PASSWORD")
			}
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				if err := s.app.Session().ChangePassword(ctx, current, next); err != nil {
					return failure(err, "Password change failed")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "Current password (env MOODBUDDY_PASSWORD)")
	cmd.Flags().StringVar(&next, "new", "", "New password (env MOODBUDDY_NEW_PASSWORD)")
	return cmd
}

// ---------------------------------------------------------------------------
// views

func newTodayCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				e, ok := s.app.TodayEntry()
				out := cmd.OutOrStdout()
				if !ok {
					if done, err := c.printJSON(out, nil); done {
						return err
					}
					fmt.Fprintln(out, "No entry for today yet")
					return nil
				}
				if done, err := c.printJSON(out, e); done {
					return err
				}
				printEntry(out, e, s.app.Location(), true)
				return nil
			})
		},
	}
}

func newRecentCmd(c *cli) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				entries := s.app.Recent(n)
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, entries); done {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No entries yet")
				}
				for _, e := range entries {
					printEntry(out, e, s.app.Location(), false)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 5, "How many entries to show")
	return cmd
}

func newCalendarCmd(c *cli) *cobra.Command {
	var (
		month  string
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show one month of moods, day by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				year, mon, _ := s.app.Now().In(s.app.Location()).Date()
				if month != "" {
					t, err := time.Parse("2006-01", month)
					if err != nil {
						return fmt.Errorf("invalid --month %q, want YYYY-MM", month)
					}
					year, mon = t.Year(), t.Month()
				}
				idx := s.app.CalendarIndex(year, mon)
				if remote {
					var err error
					if idx, err = s.app.FetchCalendar(ctx, year, mon); err != nil {
						return failure(err, "Failed to load calendar")
					}
				}
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, idx); done {
					return err
				}
				printCalendar(out, year, mon, idx)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to show as YYYY-MM (default current)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the service for the month instead of the loaded entries")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show streaks, averages and distributions from the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				st, err := s.app.RefreshStats(ctx, days)
				if err != nil {
					if st = s.app.Stats(); st == nil {
						return failure(err, "Failed to fetch statistics")
					}
				}
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, st); done {
					return err
				}
				printStats(out, st, s.app.StatsWindow())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Trailing window in days (default MOODBUDDY_STATS_WINDOW_DAYS)")
	return cmd
}

// ---------------------------------------------------------------------------
// mutations

type entryFlags struct {
	mood       string
	intensity  int
	journal    string
	activities []string
	sleep      float64
	weather    string
	tags       []string
	date       string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mood, "mood", "", "Mood: "+joinMoods())
	cmd.Flags().IntVar(&f.intensity, "intensity", 0, "Intensity 1-10 (default 5)")
	cmd.Flags().StringVar(&f.journal, "journal", "", "Journal text")
	cmd.Flags().StringSliceVar(&f.activities, "activity", nil, "Activity tag, repeatable")
	cmd.Flags().Float64Var(&f.sleep, "sleep", 0, "Hours slept")
	cmd.Flags().StringVar(&f.weather, "weather", "", "Weather: sunny, cloudy, rainy, snowy, windy")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Free-form tag, repeatable")
	cmd.Flags().StringVar(&f.date, "date", "", "Entry date as YYYY-MM-DD (default now)")
}

func (f *entryFlags) parseDate(loc *time.Location) (time.Time, error) {
	if f.date == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", f.date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", f.date)
	}
	return t, nil
}

func (f *entryFlags) draft(cmd *cobra.Command, loc *time.Location) (client.EntryDraft, error) {
	date, err := f.parseDate(loc)
	if err != nil {
		return client.EntryDraft{}, err
	}
	d := client.EntryDraft{
		Date:          date,
		Mood:          client.Mood(f.mood),
		MoodIntensity: f.intensity,
		JournalEntry:  f.journal,
		Activities:    toActivities(f.activities),
		Weather:       client.Weather(f.weather),
		Tags:          f.tags,
	}
	if cmd.Flags().Changed("sleep") {
		v := f.sleep
		d.SleepHours = &v
	}
	return d, nil
}

// patch includes only the flags given on the command line.
func (f *entryFlags) patch(cmd *cobra.Command, loc *time.Location) (client.EntryPatch, error) {
	var p client.EntryPatch
	fl := cmd.Flags()
	if fl.Changed("date") {
		d, err := f.parseDate(loc)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if fl.Changed("mood") {
		m := client.Mood(f.mood)
		p.Mood = &m
	}
	if fl.Changed("intensity") {
		v := f.intensity
		p.MoodIntensity = &v
	}
	if fl.Changed("journal") {
		v := f.journal
		p.JournalEntry = &v
	}
	if fl.Changed("activity") {
		v := toActivities(f.activities)
		p.Activities = &v
	}
	if fl.Changed("sleep") {
		v := f.sleep
		p.SleepHours = &v
	}
	if fl.Changed("weather") {
		w := client.Weather(f.weather)
		p.Weather = &w
	}
	if fl.Changed("tag") {
		v := append([]string(nil), f.tags...)
		p.Tags = &v
	}
	return p, nil
}

func newAddCmd(c *cli) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a mood entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				d, err := f.draft(cmd, s.app.Location())
				if err != nil {
					return err
				}
				e, err := s.app.Create(ctx, d)
				if err != nil {
					return failure(err, "Failed to save entry")
				}
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, state.CreatedResult(e, nil, "")); done {
					return err
				}
				fmt.Fprint(out, "Saved ")
				printEntry(out, e.MoodEntry, s.app.Location(), false)
				if e.Streak != nil && e.Streak.Current > 0 {
					fmt.Fprintf(out, "Streak: %d day(s)\n", e.Streak.Current)
				}
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				p, err := f.patch(cmd, s.app.Location())
				if err != nil {
					return err
				}
				e, err := s.app.Update(ctx, args[0], p)
				if err != nil {
					return failure(err, "Failed to update entry")
				}
				out := cmd.OutOrStdout()
				if done, err := c.printJSON(out, state.ResultOf(e, nil, "")); done {
					return err
				}
				fmt.Fprint(out, "Updated ")
				printEntry(out, *e, s.app.Location(), false)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, s *session) error {
				if err := s.app.Remove(ctx, args[0]); err != nil {
					return failure(err, "Failed to delete entry")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// ---------------------------------------------------------------------------
// output

func printEntry(w io.Writer, e client.MoodEntry, loc *time.Location, full bool) {
	fmt.Fprintf(w, "%s  %-8s %2d/10  %s\n", e.Date.In(loc).Format(state.DayKeyLayout), e.Mood, e.MoodIntensity, e.ID)
	if !full {
		return
	}
	if e.JournalEntry != "" {
		fmt.Fprintf(w, "  %s\n", e.JournalEntry)
	}
	if len(e.Activities) > 0 {
		acts := make([]string, len(e.Activities))
		for i, a := range e.Activities {
			acts[i] = string(a)
		}
		fmt.Fprintf(w, "  activities: %s\n", strings.Join(acts, ", "))
	}
	if e.SleepHours != nil {
		fmt.Fprintf(w, "  sleep: %.1fh\n", *e.SleepHours)
	}
	if e.Weather != "" {
		fmt.Fprintf(w, "  weather: %s\n", e.Weather)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %s\n", strings.Join(e.Tags, ", "))
	}
}

func printCalendar(w io.Writer, year int, month time.Month, idx map[string]state.DaySummary) {
	fmt.Fprintf(w, "%s %d\n", month, year)
	if len(idx) == 0 {
		fmt.Fprintln(w, "  no entries")
		return
	}
	days := make([]string, 0, len(idx))
	for k := range idx {
		days = append(days, k)
	}
	sort.Strings(days)
	for _, k := range days {
		d := idx[k]
		marker := ""
		if d.HasJournal {
			marker = "  *"
		}
		fmt.Fprintf(w, "  %s  %-8s %2d/10%s\n", k, d.Mood, d.Intensity, marker)
	}
}

func printStats(w io.Writer, st *client.AggregateStats, window int) {
	fmt.Fprintf(w, "Last %d days\n", window)
	fmt.Fprintf(w, "Total entries:  %d\n", st.TotalEntries)
	fmt.Fprintf(w, "Average mood:   %.1f\n", st.AverageMood)
	fmt.Fprintf(w, "Current streak: %d\n", st.Streak.Current)
	fmt.Fprintf(w, "Longest streak: %d\n", st.Streak.Longest)
	if len(st.MoodDistribution) > 0 {
		fmt.Fprintln(w, "Moods:")
		for _, m := range st.MoodDistribution {
			fmt.Fprintf(w, "  %-8s %d\n", m.Mood, m.Count)
		}
	}
	if len(st.ActivityFrequency) > 0 {
		fmt.Fprintln(w, "Activities:")
		for _, a := range st.ActivityFrequency {
			fmt.Fprintf(w, "  %-8s %d\n", a.Activity, a.Count)
		}
	}
}

func toActivities(in []string) []client.Activity {
	if len(in) == 0 {
		return nil
	}
	out := make([]client.Activity, len(in))
	for i, a := range in {
		out[i] = client.Activity(strings.TrimSpace(a))
	}
	return out
}

func joinMoods() string {
	names := make([]string, len(client.Moods))
	for i, m := range client.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
