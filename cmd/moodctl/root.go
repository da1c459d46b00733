package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/moodbuddy/moodbuddy/client"
	"github.com/moodbuddy/moodbuddy/internal/config"
	"github.com/moodbuddy/moodbuddy/state"
)

const commandTimeout = 30 * time.Second

var errNotLoggedIn = errors.New("not logged in; run `moodctl login` first")

// cli carries the resolved configuration and flags for one invocation.
type cli struct {
	cfg *config.Config

	serviceURL string
	tokenFile  string
	debug      bool
	jsonLogs   bool
	jsonOut    bool
}

// session is an App bound to the token file for the length of a command.
type session struct {
	app    *state.App
	client *client.Client
	path   string
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "moodctl",
		Short:         "Record daily moods and review your journal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVar(&c.serviceURL, "service-url", "", "Base URL of the mood service including /api (env MOODBUDDY_SERVICE_URL)")
	root.PersistentFlags().StringVar(&c.tokenFile, "token-file", "", "Where the session token is kept (env MOODBUDDY_TOKEN_FILE)")
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "Enable verbose debug output")
	root.PersistentFlags().BoolVar(&c.jsonLogs, "json-logs", false, "Emit logs as JSON")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newProfileCmd(c),
		newPasswdCmd(c),
		newTodayCmd(c),
		newRecentCmd(c),
		newCalendarCmd(c),
		newAddCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newStatsCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.serviceURL != "" {
		cfg.ServiceURL = c.serviceURL
	}
	if c.tokenFile != "" {
		cfg.TokenFile = c.tokenFile
	}
	if c.debug {
		cfg.Debug = true
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return err
	}
	cfg.Init()
	if c.jsonLogs {
		log.Logger = config.NewLogger("moodctl")
	}
	c.cfg = cfg
	return nil
}

// open builds the client and App and resumes the stored session, if any.
// A rejected token is dropped and the session stays anonymous.
func (c *cli) open(ctx context.Context) (*session, error) {
	token, err := readToken(c.cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	loc, err := c.cfg.Location()
	if err != nil {
		return nil, err
	}

	cl := client.New(c.cfg.ServiceURL,
		client.WithHTTPTimeout(c.cfg.HTTPTimeout),
		client.WithCredentials(client.NewCredentials(token)),
		client.WithDebugLogging(c.cfg.Debug),
	)
	app := state.New(cl,
		state.WithLocation(loc),
		state.WithStatsWindow(c.cfg.StatsWindowDays),
	)
	s := &session{app: app, client: cl, path: c.cfg.TokenFile}

	if err := app.Session().Start(ctx); err != nil {
		log.Warn().Err(err).Msg("stored session could not be resumed")
	}
	return s, nil
}

// close drains background work and syncs the token file with the
// credential: a present token is written, a cleared one removed.
func (s *session) close() error {
	_ = s.app.Close()
	_ = s.client.Close()
	if tok := s.client.Credentials().Token(); tok != "" {
		return writeToken(s.path, tok)
	}
	return removeToken(s.path)
}

func (s *session) requireAuth() error {
	if s.app.Session().State() != state.Authenticated {
		return errNotLoggedIn
	}
	return nil
}

// withSession runs fn against an opened session under the command timeout.
func (c *cli) withSession(cmd *cobra.Command, auth bool, fn func(ctx context.Context, s *session) error) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if auth {
		if err := s.requireAuth(); err != nil {
			return err
		}
	}
	return fn(ctx, s)
}

// printJSON writes v indented when --json is set and reports whether it did.
func (c *cli) printJSON(w io.Writer, v any) (bool, error) {
	if !c.jsonOut {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}

// failure turns a mutation error into the message a user should see.
func failure(err error, fallback string) error {
	return errors.New(state.ResultOf(nil, err, fallback).Message)
}
