package offline

import (
	"fmt"
	"io"
	"time"

	"github.com/crowelm/crowelm/internal/bootstrap"
	"github.com/crowelm/crowelm/internal/config"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/core/offline/queue"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Inspect and replay the pending mutation queue",
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(newPending(), newSync())
	return cmd
}

func openQueue(cmd *cobra.Command) (*queue.Queue, func(), error) {
	res, err := bootstrap.Open(cmd.Context(), config.Global())
	if err != nil {
		return nil, nil, err
	}
	return queue.New(res.Store, res.Backend), func() { res.Close(cmd.Context()) }, nil
}

func newPending() *cobra.Command {
	return &cobra.Command{
		Use:          "pending",
		Short:        "List operations waiting for connectivity",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, closeFn, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ops, err := q.Pending(cmd.Context())
			if err != nil {
				return err
			}
			RenderOperations(cmd.OutOrStdout(), ops)
			return nil
		},
	}
}

func newSync() *cobra.Command {
	return &cobra.Command{
		Use:          "sync",
		Short:        "Replay pending operations once against the backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, closeFn, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := q.SyncPending(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "attempted: %d, synced: %d, remaining: %d\n", res.Attempted, res.Synced, res.Remaining)
			if len(res.Failed) > 0 {
				RenderOperations(out, res.Failed)
			}
			return nil
		},
	}
}

func RenderOperations(w io.Writer, ops []*offline.Operation) {
	if len(ops) == 0 {
		fmt.Fprintln(w, "no pending operations")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Type", "Endpoint", "Queued", "Attempts", "Last Error"})
	for _, op := range ops {
		t.AppendRow(table.Row{
			op.ID.String(), op.Type, op.Endpoint,
			op.Timestamp.Format(time.RFC3339), op.Attempts, op.LastError,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(ops)})
	t.Render()
}
