package main

import (
	"fmt"
	"time"

	"practice-journal-api/internal/database"
	"practice-journal-api/internal/models"

	"github.com/spf13/cobra"
)

func newSubscriptionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Inspect or repair a user's subscription state",
	}
	cmd.AddCommand(newSubscriptionShowCommand(ctx))
	cmd.AddCommand(newSubscriptionSetCommand(ctx))
	return cmd
}

func newSubscriptionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Print the stored subscription for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			user, err := database.NewUserStore(db).GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:             %s (id %d)\n", user.Username, user.ID)
			fmt.Fprintf(out, "Subscription ID:  %s\n", valueOr(user.SubscriptionID, "-"))
			fmt.Fprintf(out, "Status:           %s\n", valueOr(user.SubscriptionStatus, "-"))
			if user.SubscriptionEventAt > 0 {
				fmt.Fprintf(out, "Last event:       %s\n", time.Unix(user.SubscriptionEventAt, 0).UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newSubscriptionSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <email> <subscription_id> <status>",
		Short: "Overwrite a user's subscription, bypassing event ordering",
		Long: "Overwrite a user's subscription id and status. The stored event time is set\n" +
			"to now, so webhook events created before this command are ignored.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			users := database.NewUserStore(db)
			user, err := users.GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			status := args[2]
			if !models.IsSubscriptionStatus(status) {
				return fmt.Errorf("unknown subscription status %q", status)
			}
			if _, err := users.LinkSubscription(cmd.Context(), database.LinkUpdate{
				UserID:         user.ID,
				SubscriptionID: args[1],
				Status:         status,
				EventAt:        time.Now().Unix(),
				Force:          true,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s (%s)\n", user.Email, args[1], status)
			return nil
		},
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
