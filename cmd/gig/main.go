package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "sidegig/internal/cli"
	"sidegig/internal/config"
	"sidegig/internal/game"

	"github.com/spf13/cobra"
)

func main() {
	config.LoadEnvFile()
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	if prefs, err := cl.LoadPrefs(); err == nil && prefs.APIBaseURL != "" {
		apiBase = prefs.APIBaseURL
	}

	root := &cobra.Command{
		Use:          "gig",
		Short:        "Side-gig board client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newStatusCmd(&apiBase),
		newOffersCmd(&apiBase),
		newClaimCmd(&apiBase),
		newReleaseCmd(&apiBase),
		newClaimedCmd(&apiBase),
		newInstancesCmd(&apiBase),
		newLogCmd(&apiBase),
		newCompleteCmd(&apiBase),
		newAbandonCmd(&apiBase),
		newDayCmd(&apiBase),
		newPrefsCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

// defaultCategory resolves the category argument, falling back to saved
// prefs and then to the first category the server reports.
func defaultCategory(ctx context.Context, client *cl.Client, arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if prefs, err := cl.LoadPrefs(); err == nil && prefs.DefaultCategory != "" {
		return prefs.DefaultCategory, nil
	}
	categories, err := client.Categories(ctx)
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "", fmt.Errorf("server reports no categories")
	}
	return categories[0], nil
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current day, balance, and recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			state, err := client.State(ctx)
			if err != nil {
				return err
			}
			accent.Printf("\n== DAY %d ==\n", state.Day)
			fmt.Printf("  balance: $%.2f\n", state.Money)
			tail := state.Log
			if len(tail) > 5 {
				tail = tail[len(tail)-5:]
			}
			for _, entry := range tail {
				fmt.Printf("  [day %d] %s\n", entry.Day, entry.Message)
			}
			return nil
		},
	}
}

func newOffersCmd(apiBase *string) *cobra.Command {
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "offers [category]",
		Short: "List today's offers for a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			category, err := defaultCategory(ctx, client, argOrEmpty(args))
			if err != nil {
				return err
			}
			offers, err := client.Offers(ctx, category, upcoming)
			if err != nil {
				return err
			}
			renderOffers(category, offers)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "include offers that open on a later day")
	return cmd
}

func newClaimCmd(apiBase *string) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "claim <offer-id>",
		Short: "Claim an offer and start its instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			resolved, err := defaultCategory(ctx, client, category)
			if err != nil {
				return err
			}
			result, err := client.Claim(ctx, resolved, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Claimed %s. Instance %s due day %d.",
				result.Entry.TemplateID, shortID(result.Instance.ID), result.Entry.DeadlineDay))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "market category")
	return cmd
}

func newReleaseCmd(apiBase *string) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "release <offer-id>",
		Short: "Walk away from a claimed offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			resolved, err := defaultCategory(ctx, client, category)
			if err != nil {
				return err
			}
			released, err := client.Release(ctx, resolved, game.EntryIdentifiers{OfferID: args[0]})
			if err != nil {
				return err
			}
			if !released {
				printWarn("Nothing to release for that offer.")
				return nil
			}
			printSuccess("Released. The offer is back on the board.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "market category")
	return cmd
}

func newClaimedCmd(apiBase *string) *cobra.Command {
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "claimed [category]",
		Short: "List claimed offers and their progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			category, err := defaultCategory(ctx, client, argOrEmpty(args))
			if err != nil {
				return err
			}
			entries, err := client.Claimed(ctx, category, includeCompleted)
			if err != nil {
				return err
			}
			renderClaimed(category, entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeCompleted, "all", false, "include completed entries")
	return cmd
}

func newInstancesCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "instances [definition-id]",
		Short: "List instances in progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			var instances []*game.Instance
			var err error
			if len(args) == 1 {
				instances, err = client.Instances(ctx, args[0])
			} else {
				instances, err = client.ActiveInstances(ctx)
			}
			if err != nil {
				return err
			}
			renderInstances(instances)
			return nil
		},
	}
}

func newLogCmd(apiBase *string) *cobra.Command {
	var definitionID string
	cmd := &cobra.Command{
		Use:   "log <instance-id> <hours>",
		Short: "Log worked hours against an instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[1], 64)
			if err != nil || hours <= 0 {
				return fmt.Errorf("hours must be a positive number")
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			definition, err := resolveDefinition(ctx, client, definitionID, args[0])
			if err != nil {
				return err
			}
			result, err := client.LogHours(ctx, definition, args[0], hours)
			if err != nil {
				return err
			}
			if result.Completed {
				printSuccess(fmt.Sprintf("%s complete at %.1f hours.",
					result.Instance.Name, result.Instance.HoursLogged))
				return nil
			}
			printInfo(fmt.Sprintf("%.1f hours logged on %s (%.1f total).",
				hours, result.Instance.Name, result.Instance.HoursLogged))
			return nil
		},
	}
	cmd.Flags().StringVarP(&definitionID, "definition", "d", "", "definition id (resolved from the instance when omitted)")
	return cmd
}

func newCompleteCmd(apiBase *string) *cobra.Command {
	var definitionID string
	cmd := &cobra.Command{
		Use:   "complete <instance-id>",
		Short: "Finish an instance regardless of logged hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			definition, err := resolveDefinition(ctx, client, definitionID, args[0])
			if err != nil {
				return err
			}
			instance, err := client.Complete(ctx, definition, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s marked complete.", instance.Name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&definitionID, "definition", "d", "", "definition id (resolved from the instance when omitted)")
	return cmd
}

func newAbandonCmd(apiBase *string) *cobra.Command {
	var definitionID string
	cmd := &cobra.Command{
		Use:   "abandon <instance-id>",
		Short: "Drop an instance and release any market claim on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			definition, err := resolveDefinition(ctx, client, definitionID, args[0])
			if err != nil {
				return err
			}
			if err := client.Abandon(ctx, definition, args[0]); err != nil {
				return err
			}
			printWarn("Abandoned.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&definitionID, "definition", "d", "", "definition id (resolved from the instance when omitted)")
	return cmd
}

func newDayCmd(apiBase *string) *cobra.Command {
	day := &cobra.Command{
		Use:   "day",
		Short: "Day controls",
	}
	day.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the current day and roll fresh offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			summary, err := client.EndDay(ctx)
			if err != nil {
				return err
			}
			renderDaySummary(summary)
			return nil
		},
	})
	return day
}

func newPrefsCmd(apiBase *string) *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Saved CLI defaults",
	}
	prefs.AddCommand(&cobra.Command{
		Use:   "set [category]",
		Short: "Save the API base URL and default category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _ := cl.LoadPrefs()
			p.APIBaseURL = strings.TrimSpace(*apiBase)
			if len(args) == 1 {
				p.DefaultCategory = args[0]
			}
			if err := cl.SavePrefs(p); err != nil {
				return err
			}
			printSuccess("Preferences saved.")
			return nil
		},
	})
	prefs.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget saved defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearPrefs(); err != nil {
				return err
			}
			printInfo("Preferences cleared.")
			return nil
		},
	})
	return prefs
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// resolveDefinition finds the definition owning an instance when the flag is
// omitted, by scanning the active roster.
func resolveDefinition(ctx context.Context, client *cl.Client, definitionID, instanceID string) (string, error) {
	if definitionID != "" {
		return definitionID, nil
	}
	instances, err := client.ActiveInstances(ctx)
	if err != nil {
		return "", err
	}
	for _, inst := range instances {
		if inst.ID == instanceID || strings.HasPrefix(inst.ID, instanceID) {
			return inst.DefinitionID, nil
		}
	}
	return "", fmt.Errorf("instance %s not found in the active roster; pass --definition", instanceID)
}
