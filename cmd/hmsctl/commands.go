package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-hms-admin/access"
	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/apiclient"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/jrsteele09/go-hms-admin/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "hmsctl",
		Short: "Hospital administration console",
		Long: `hmsctl signs in to the hospital administration backend and reads its collections.

Environment Variables:
  API_BASE_URL   Backend URL (default: http://localhost:8080)
  SESSION_STORE  file, redis or memory (default: file)
  EXPIRY_GRACE   How long the expiry notice stays up (default: 6s)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Backend API URL (overrides API_BASE_URL)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newMenuCmd(a),
		newWatchCmd(a),
		newListCmd(a),
		newSummaryCmd(a),
		newForgotCmd(a),
	)
	return root
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in, prompting for the password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			return runLogin(cmd.Context(), a, s, args)
		},
	}
}

func runLogin(ctx context.Context, a *app, s *session, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		line, err := a.readLine("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = line
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := s.Login(ctx, username, password); err != nil {
		return fmt.Errorf("%s", apiclient.LoginMessage(err))
	}
	fmt.Fprintln(a.out, ui.Colourize(a.colour, ui.Green, "Signed in as "+s.Session().User.DisplayName()))
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			if a.jsonOutput {
				return writeJSON(a.out, whoamiJSON(s.Session()))
			}
			fmt.Fprintln(a.out, formatWhoamiHuman(s.Session()))
			return nil
		},
	}
}

func formatWhoamiHuman(session sessions.Session) string {
	if !session.IsAuthenticated {
		return "Not signed in"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "User:        %s\n", session.User.DisplayName())
	if session.User != nil && session.User.Email != "" {
		fmt.Fprintf(&b, "Email:       %s\n", session.User.Email)
	}
	fmt.Fprintf(&b, "Roles:       %s\n", strings.Join(session.Roles, ", "))
	fmt.Fprintf(&b, "Permissions: %s", strings.Join(session.Permissions, ", "))
	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "\nExpires:     %s", session.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func whoamiJSON(session sessions.Session) map[string]any {
	output := map[string]any{
		"authenticated": session.IsAuthenticated,
		"user":          session.User,
		"roles":         session.Roles,
		"permissions":   session.Permissions,
	}
	if !session.ExpiresAt.IsZero() {
		output["expiresAt"] = session.ExpiresAt
	}
	return output
}

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the navigation visible to the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			if a.jsonOutput {
				return writeJSON(a.out, s.Menu())
			}
			printEntries(a.out, s.Menu(), 0, a.colour)
			return nil
		},
	}
}

func printEntries(w io.Writer, entries []access.Entry, depth int, colour bool) {
	for _, e := range entries {
		indent := strings.Repeat("  ", depth)
		if e.Path == "" {
			fmt.Fprintf(w, "%s%s\n", indent, e.Title)
		} else {
			fmt.Fprintf(w, "%s%-20s %s\n", indent, e.Title, ui.Colourize(colour, ui.Gray, e.Path))
		}
		printEntries(w, e.Children, depth+1, colour)
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay signed in until the session expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			return runWatch(cmd.Context(), a, s)
		},
	}
}

// runWatch blocks until the session ends or ctx is cancelled. It ends at
// expiry, after the notice and teardown, or when another process signs out of
// a shared session store.
func runWatch(ctx context.Context, a *app, s *session) error {
	current := s.Session()
	if !current.IsAuthenticated {
		return fmt.Errorf("not signed in")
	}

	unsubscribe := s.Subscribe(func(next sessions.Session) {
		if !next.IsAuthenticated {
			fmt.Fprintln(a.out, ui.Colourize(a.colour, ui.Yellow, "Session ended"))
		}
	})
	defer unsubscribe()

	signedOut := make(chan struct{}, 1)
	if cw, ok := s.repo.(changeWatcher); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		err := cw.Watch(watchCtx, func() {
			// expiry teardown has already signed out, only react to other writers
			if !s.Session().IsAuthenticated {
				return
			}
			if err := s.Start(watchCtx); err != nil {
				log.Warn().Err(err).Msg("failed to reload session")
			}
			if !s.Session().IsAuthenticated {
				select {
				case signedOut <- struct{}{}:
				default:
				}
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("session store changes will not be followed")
		}
	}

	if current.ExpiresAt.IsZero() {
		fmt.Fprintln(a.out, "The session carries no expiry, press Ctrl+C to stop")
	} else {
		fmt.Fprintf(a.out, "Signed in as %s until %s\n", current.User.DisplayName(), current.ExpiresAt.Local().Format("15:04:05"))
	}

	select {
	case path := <-s.redirected:
		fmt.Fprintf(a.out, "Redirected to %s\n", path)
	case <-signedOut:
		fmt.Fprintln(a.out, "Signed out elsewhere")
	case <-ctx.Done():
	}
	return nil
}

type lister func(ctx context.Context, client resources.Doer) (any, error)

func listOf[T resources.Model](r func(resources.Doer) *resources.Resource[T]) lister {
	return func(ctx context.Context, client resources.Doer) (any, error) {
		return r(client).List(ctx)
	}
}

var listers = map[string]lister{
	api.CollectionBeds:      listOf(resources.Beds),
	api.CollectionRooms:     listOf(resources.Rooms),
	api.CollectionDonations: listOf(resources.Donations),
	api.CollectionSchedules: listOf(resources.Schedules),
	api.CollectionReports:   listOf(resources.PathologyReports),
	api.CollectionInvoices:  listOf(resources.Invoices),
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "list <collection>",
		Short:     "List a collection as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: api.Collections,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, ok := listers[args[0]]
			if !ok {
				return fmt.Errorf("unknown collection %q (one of %s)", args[0], strings.Join(api.Collections, ", "))
			}
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()

			items, err := list(cmd.Context(), s.Client())
			if err != nil {
				return err
			}
			return writeJSON(a.out, items)
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [collection...]",
		Short: "Count the records in each collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range args {
				if _, ok := listers[c]; !ok {
					return fmt.Errorf("unknown collection %q (one of %s)", c, strings.Join(api.Collections, ", "))
				}
			}
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()

			counts, err := resources.Counts(cmd.Context(), s.Client(), args...)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, counts)
			}
			for _, c := range api.Collections {
				if n, ok := counts[c]; ok {
					fmt.Fprintf(a.out, "%-18s %d\n", c, n)
				}
			}
			return nil
		},
	}
}

func newForgotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot <email>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			message, err := s.ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, message)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
