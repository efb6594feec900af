// dashgate is a small operator CLI over the dashboard gateway client:
// check who the stored session belongs to, list courses, pull dashboard
// statistics. It reads configuration from the environment (optionally via
// a .env file) or a YAML config file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/edhire/dashgate-go/internal/config"
	"github.com/edhire/dashgate-go/pkg/dashgate"
)

var (
	cfgFile string
	cfg     *config.Config
	client  *dashgate.Client
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashgate",
		Short:         "Gateway client for the educator/recruiter dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			client, err = dashgate.NewClient(&dashgate.ClientOptions{
				BaseURL:     cfg.BaseURL,
				Audience:    cfg.Audience,
				SessionFile: cfg.SessionFile,
				Timeout:     cfg.Timeout,
				SentryDSN:   cfg.SentryDSN,
			})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if client != nil {
				client.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to YAML config file")

	root.AddCommand(meCmd(), coursesCmd(), statsCmd())
	return root
}

func meCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the user behind the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, redirect, err := client.Auth.Me(cmd.Context())
			if redirect != nil {
				return sessionGone(redirect)
			}
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
}

func coursesCmd() *cobra.Command {
	var filters dashgate.CourseFilters

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the educator's courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, redirect, err := client.Courses.List(cmd.Context(), &filters)
			if redirect != nil {
				return sessionGone(redirect)
			}
			if err != nil {
				return err
			}

			fmt.Printf("%d courses (showing %d)\n", list.TotalCount, len(list.Courses))
			for _, course := range list.Courses {
				fmt.Printf("  [%d] %-40s %-10s %s\n", course.ID, course.Name, course.Status, course.Instructor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by status (Active, Inactive)")
	cmd.Flags().StringVar(&filters.Search, "search", "", "search by name, instructor or provider")
	cmd.Flags().StringVar(&filters.Ordering, "ordering", "", "order by field (created_at, -created_at, name)")
	cmd.Flags().IntVar(&filters.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filters.PageSize, "page-size", 0, "items per page (max 100)")
	return cmd
}

func statsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics for the configured audience",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch cfg.Audience {
			case config.AudienceRecruiter:
				dashboard, redirect, err := client.Dashboard.Recruiter(cmd.Context(), period)
				if redirect != nil {
					return sessionGone(redirect)
				}
				if err != nil {
					return err
				}
				return printJSON(dashboard)
			default:
				dashboard, redirect, err := client.Dashboard.Educator(cmd.Context(), period)
				if redirect != nil {
					return sessionGone(redirect)
				}
				if err != nil {
					return err
				}
				return printJSON(dashboard)
			}
		},
	}

	cmd.Flags().StringVar(&period, "period", "30d", "stats period (7d, 30d, 90d)")
	return cmd
}

func sessionGone(redirect *dashgate.Redirect) error {
	return errors.Errorf("session is missing or no longer valid (backend wants %s); log in through the dashboard and save the tokens to %s",
		redirect.Location(), cfg.SessionFile)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to render output")
	}
	fmt.Println(string(data))
	return nil
}
