package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pollquiz-service/internal/config"
)

// NewAuditCmd recomputes a poll's tallies from its stored responses and
// reports any counter drift. It exits non-zero when drift is found.
func NewAuditCmd(configPath *string) *cobra.Command {
	var pollID string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check a poll's vote counters against its responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("audit needs a postgres url")
			}
			logger := newLogger(cfg)
			b, err := newBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			audit, err := b.results.AuditPoll(cmd.Context(), pollID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(audit); err != nil {
				return err
			}
			if !audit.Consistent() {
				return fmt.Errorf("poll %s counters drifted from recorded responses", pollID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pollID, "poll", "", "poll id to audit")
	_ = cmd.MarkFlagRequired("poll")
	return cmd
}
