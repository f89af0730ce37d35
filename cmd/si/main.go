package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"si-go/internal/app"
	"si-go/internal/config"
	"si-go/internal/si"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an SIApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "SyncTeam", "AddNote").
// Commands that only touch the cache pass needsToken=false.
func newApp(cmd *cobra.Command, operation string, needsToken bool) (*app.SIApp, error) {
	cfg, _, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}

	var token string
	if needsToken {
		token, err = readToken(cfg.TokenEnv)
		if err != nil {
			return nil, err
		}
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewSIApp(cfg, operation, app.Options{
		Token:   token,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func promptFor(cmd *cobra.Command) *prompter {
	return newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

var rootCmd = &cobra.Command{
	Use:          "si",
	Short:        "Manage Small Improvements one-on-one meetings from the terminal",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := app.DefaultConfig(defaults)
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults["config_path"])
		fmt.Fprintf(out, "Cache:    %s\n", cfg.Cache.Path)
		fmt.Fprintf(out, "Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, defaults, err := app.LoadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults["config_path"])
		fmt.Fprintf(out, "Profile:    %s\n", cfg.Profile)
		if cfg.BaseURL != "" {
			fmt.Fprintf(out, "Base URL:   %s\n", cfg.BaseURL)
		}
		fmt.Fprintf(out, "Token Env:  %s\n", cfg.TokenEnv)
		fmt.Fprintf(out, "Base Dir:   %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:    %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Cache:      %s\n", describeCache(cfg.Cache))
		fmt.Fprintf(out, "Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func describeCache(c config.CacheConfig) string {
	switch c.Type {
	case "file", "":
		return "file " + c.Path
	case "sqlite":
		return "sqlite " + c.DataDir
	case "s3":
		return fmt.Sprintf("s3 s3://%s/%s", c.S3Bucket, strings.TrimPrefix(c.S3Prefix, "/"))
	default:
		return c.Type
	}
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Connect to your Small Improvements tenant and cache your team",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Setup", true)
		if err != nil {
			return err
		}
		defer a.Close()

		p := promptFor(cmd)
		if a.IsSetup() {
			if err := p.mustConfirm("Already setup. Do you want to overwrite?", false); err != nil {
				return err
			}
		}

		subdomain, err := p.ask("Small Improvements subdomain", si.DefaultSubdomain)
		if err != nil {
			return err
		}

		if _, err := a.Setup(cmd.Context(), subdomain); err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Setup Complete")
		return nil
	},
}

var listTeamCmd = &cobra.Command{
	Use:   "list-team",
	Short: "List your manager and team",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListTeam", false)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}
		return printTeam(cmd.OutOrStdout(), team)
	},
}

var syncTeamCmd = &cobra.Command{
	Use:   "sync-team",
	Short: "Pull new teammates into the cache, keeping nicknames",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SyncTeam", true)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.SyncTeam(cmd.Context()); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}
		return printTeam(cmd.OutOrStdout(), team)
	},
}

var addNicknameCmd = &cobra.Command{
	Use:   "add-nickname",
	Short: "Give a teammate a nickname to select them by",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "AddNickname", false)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}

		p := promptFor(cmd)
		found, missing, err := promptTeammates(p, "Who do you want to nickname?", team)
		if err != nil {
			return err
		}
		if err := checkSelection(found, missing); err != nil {
			return err
		}
		if len(found) > 1 {
			return errors.New("select a single teammate to nickname")
		}

		nickname, err := p.ask("Nickname", "")
		if err != nil {
			return err
		}
		if err := p.mustConfirm(fmt.Sprintf("Nickname %s %q", found[0].Name, nickname), true); err != nil {
			return err
		}

		return a.AddNickname(found[0], nickname)
	},
}

var addTalkingPointCmd = &cobra.Command{
	Use:     "add-talking-point [CONTENT...]",
	Aliases: []string{"ap"},
	Short:   "Add a talking point to your next one-on-one",
	RunE: func(cmd *cobra.Command, args []string) error {
		private, _ := cmd.Flags().GetBool("private")
		draft, _ := cmd.Flags().GetBool("draft-meeting")
		desired, _ := cmd.Flags().GetStringArray("teammate")

		a, err := newApp(cmd, "AddTalkingPoint", true)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}

		p := promptFor(cmd)
		content := strings.TrimSpace(strings.Join(args, " "))
		if content == "" {
			if content, err = p.ask("Talking Point", ""); err != nil {
				return err
			}
		}

		teammates, err := chooseTeammates(p, desired, team, "Who do you want to add this talking point to?", "Add this talking point to")
		if err != nil {
			return err
		}

		meetings, err := a.AddTalkingPoint(cmd.Context(), teammates, content, draft, si.NoteOptions{Private: private})
		printAdded(cmd, "talking point", teammates, meetings)
		return err
	},
}

var addNoteCmd = &cobra.Command{
	Use:     "add-note [CONTENT...]",
	Aliases: []string{"an"},
	Short:   "Add a note to your next one-on-one",
	RunE: func(cmd *cobra.Command, args []string) error {
		private, _ := cmd.Flags().GetBool("private")
		draft, _ := cmd.Flags().GetBool("draft-meeting")
		desired, _ := cmd.Flags().GetStringArray("teammate")

		a, err := newApp(cmd, "AddNote", true)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}

		p := promptFor(cmd)
		content := strings.TrimSpace(strings.Join(args, " "))
		if content == "" {
			if content, err = editText(); err != nil {
				return err
			}
			if content == "" {
				return errors.New("note is empty, nothing was added")
			}
		}

		teammates, err := chooseTeammates(p, desired, team, "Who do you want to add this note to?", "Add this note to")
		if err != nil {
			return err
		}

		meetings, err := a.AddNote(cmd.Context(), teammates, content, draft, si.NoteOptions{Private: private})
		printAdded(cmd, "note", teammates, meetings)
		return err
	},
}

// printAdded reports the meetings that received content. meetings is
// parallel to the prefix of teammates that succeeded.
func printAdded(cmd *cobra.Command, what string, teammates []*si.Teammate, meetings []*si.Meeting) {
	out := cmd.OutOrStdout()
	for i, m := range meetings {
		fmt.Fprintf(out, "Added %s to the %s meeting with %s\n", what, m.CalendarDate, teammates[i].DisplayName())
	}
}

var shareMeetingCmd = &cobra.Command{
	Use:     "share-meeting",
	Aliases: []string{"sm"},
	Short:   "Share your next one-on-one so your teammate can see it",
	RunE: func(cmd *cobra.Command, args []string) error {
		desired, _ := cmd.Flags().GetStringArray("teammate")

		a, err := newApp(cmd, "ShareMeeting", true)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}

		p := promptFor(cmd)
		teammates, err := chooseTeammates(p, desired, team, "Who do you want to share the upcoming meeting with?", "Share the upcoming meeting with")
		if err != nil {
			return err
		}

		without, err := a.ShareMeetings(cmd.Context(), teammates)
		for _, t := range without {
			fmt.Fprintf(cmd.OutOrStdout(), "No upcoming meeting with %s\n", t.DisplayName())
		}
		return err
	},
}

var viewMeetingCmd = &cobra.Command{
	Use:   "view-meeting",
	Short: "Print the link to your next one-on-one with a teammate",
	RunE: func(cmd *cobra.Command, args []string) error {
		desired, _ := cmd.Flags().GetStringArray("teammate")

		a, err := newApp(cmd, "ViewMeeting", true)
		if err != nil {
			return err
		}
		defer a.Close()

		team, err := a.ManagerAndTeam()
		if err != nil {
			return err
		}

		teammates, err := selectTeammates(promptFor(cmd), desired, team, "Whose meeting do you want to view?")
		if err != nil {
			return err
		}
		if len(teammates) != 1 {
			return errors.New("you should only select one teammate")
		}

		url, err := a.UpcomingMeetingURL(cmd.Context(), teammates[0])
		if err != nil {
			return err
		}
		if url == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "You do not have an upcoming meeting with %s\n", teammates[0].DisplayName())
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Meeting Link: %s\n", url)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also write debug logs to stderr")

	for _, c := range []*cobra.Command{addTalkingPointCmd, addNoteCmd} {
		c.Flags().BoolP("private", "p", false, "Only visible to you")
		c.Flags().BoolP("draft-meeting", "d", false, "Create the meeting as a draft if one is needed")
	}
	for _, c := range []*cobra.Command{addTalkingPointCmd, addNoteCmd, shareMeetingCmd, viewMeetingCmd} {
		c.Flags().StringArrayP("teammate", "t", nil, "Teammate to act on by name, nickname or number; repeatable")
	}

	configCmd.AddCommand(configInitCmd, configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(listTeamCmd)
	rootCmd.AddCommand(syncTeamCmd)
	rootCmd.AddCommand(addNicknameCmd)
	rootCmd.AddCommand(addTalkingPointCmd)
	rootCmd.AddCommand(addNoteCmd)
	rootCmd.AddCommand(shareMeetingCmd)
	rootCmd.AddCommand(viewMeetingCmd)
}
