package tdee

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/tdee-cli/internal/service"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage nutrition logs",
}

var (
	logGoal  string
	logForce bool
)

var logCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a log",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, err := service.ParseGoal(logGoal)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.CreateLog(sqldb, service.CreateLogInput{Title: strings.Join(args, " "), Goal: goal})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created log %d\n", id)
			return nil
		})
	},
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logs, most recently edited first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			logs, err := service.ListLogs(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTITLE\tGOAL\tLAST_EDIT")
			for _, l := range logs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", l.ID, l.Title, goalLabel(string(l.Goal)), l.LastEdit.Local().Format(time.RFC3339))
			}
			return nil
		})
	},
}

var logShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a log and its days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("log id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			l, err := service.LoadLog(sqldb, id)
			if err != nil {
				return err
			}
			prefs, err := service.GetPreferences(sqldb)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Log %d: %s\n", l.ID, l.Title)
			fmt.Fprintf(out, "Goal: %s\n", goalLabel(string(l.Goal)))
			fmt.Fprintf(out, "Last edit: %s\n", l.LastEdit.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Days: %d\n", len(l.Entries))
			return writeDayRows(out, l.Entries, prefs)
		})
	},
}

var logRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a log",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("log id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.RenameLog(sqldb, id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed log %d\n", id)
			return nil
		})
	},
}

var logGoalCmd = &cobra.Command{
	Use:   "goal <id> <fat-loss|muscle-gain|maintain|none>",
	Short: "Set a log's goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("log id", args[0])
		if err != nil {
			return err
		}
		goal, err := service.ParseGoal(args[1])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetLogGoal(sqldb, id, goal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set log %d goal to %s\n", id, goalLabel(string(goal)))
			return nil
		})
	},
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a log and all of its days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("log id", args[0])
		if err != nil {
			return err
		}
		if !logForce {
			return fmt.Errorf("deleting a log removes all of its days; rerun with --force")
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteLog(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted log %d\n", id)
			return nil
		})
	},
}

func goalLabel(goal string) string {
	if goal == "" {
		return "none"
	}
	return goal
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logCreateCmd, logListCmd, logShowCmd, logRenameCmd, logGoalCmd, logDeleteCmd)

	logCreateCmd.Flags().StringVar(&logGoal, "goal", "", "Goal: fat-loss|muscle-gain|maintain")
	logDeleteCmd.Flags().BoolVar(&logForce, "force", false, "Confirm deletion")
}
