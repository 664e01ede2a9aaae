package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/core/reconcile"
	"planner/core/series"
	"planner/feature/planner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// remoteCmd is the parent command for edits through a running server.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Edit planner items through a running server",
	Long: `Talks to the server at cache.server_url with the configured API key and keeps
a local snapshot of the selected partition. Single instance edits show up in the
snapshot before the server answers and are rolled back when it refuses them;
edits that fan out are re-read from the server.

Examples:
  planner remote list --owner alice
  planner remote update <id> --owner alice --completed
  planner remote delete <id> --series <series-id> --scope following`,
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch and print a partition",
	RunE:  runRemoteList,
}

var remoteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a series, or a standalone item without --rrule",
	RunE:  runRemoteCreate,
}

var remoteUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an instance at this, following or all scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteUpdate,
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an instance at this, following or all scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteDelete,
}

func init() {
	addPartitionFlags(remoteListCmd)
	addCreateFlags(remoteCreateCmd)
	for _, c := range []*cobra.Command{remoteUpdateCmd, remoteDeleteCmd} {
		addPartitionFlags(c)
		c.Flags().StringVar(&instanceScope, "scope", string(series.ScopeThis), "Scope: this, following or all")
	}
	addUpdateFlags(remoteUpdateCmd)

	remoteCmd.AddCommand(remoteListCmd, remoteCreateCmd, remoteUpdateCmd, remoteDeleteCmd)
	RootCmd.AddCommand(remoteCmd)
}

// newReconciler builds a reconciler over the HTTP client.
func (r *runtime) newReconciler() *reconcile.Reconciler {
	timeout := time.Duration(r.cfg.Cache.FetchTimeoutSeconds) * time.Second
	client := planner.NewClient(r.cfg.Cache.ServerURL, r.cfg.Server.ApiKey, timeout)
	cache := reconcile.NewCache(time.Duration(r.cfg.Cache.TTLSeconds) * time.Second)
	return reconcile.NewReconciler(cache, client, r.logger, reconcile.WithFetchTimeout(timeout))
}

// selectedPartition returns the partition named by --owner or --series.
func selectedPartition() reconcile.Partition {
	if instanceSeries != "" {
		return reconcile.SeriesPartition(instanceSeries)
	}
	return reconcile.OwnerPartition(instanceOwner)
}

func runRemoteList(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	snap, err := rt.newReconciler().Get(cmd.Context(), selectedPartition())
	if err != nil {
		return err
	}
	return printInstances(snap)
}

func runRemoteCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	req, err := createRequestFromFlags(rt)
	if err != nil {
		return err
	}

	rec := rt.newReconciler()
	p := reconcile.OwnerPartition(req.OwnerID)
	if _, err := rec.Get(ctx, p); err != nil {
		return err
	}
	_, err = rec.Create(ctx, p, req)
	return finishRemote(ctx, rt.logger, rec, p, err)
}

func runRemoteUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	req, err := updateRequestFromFlags(cmd, rt, args[0])
	if err != nil {
		return err
	}

	rec := rt.newReconciler()
	p := selectedPartition()
	if _, err := rec.Get(ctx, p); err != nil {
		return err
	}
	_, err = rec.Update(ctx, p, req)
	return finishRemote(ctx, rt.logger, rec, p, err)
}

func runRemoteDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	scope, err := series.ParseScope(instanceScope)
	if err != nil {
		return err
	}

	rec := rt.newReconciler()
	p := selectedPartition()
	if _, err := rec.Get(ctx, p); err != nil {
		return err
	}
	_, err = rec.Delete(ctx, p, series.DeleteRequest{ID: args[0], Scope: scope})
	return finishRemote(ctx, rt.logger, rec, p, err)
}

// finishRemote prints the partition after a mutation. A refused mutation is
// retried once by refetching the partition so the printed state is the
// server's.
func finishRemote(ctx context.Context, l *zap.Logger, rec *reconcile.Reconciler, p reconcile.Partition, err error) error {
	if err == nil {
		snap, _ := rec.Cache().Snapshot(p)
		return printInstances(snap)
	}

	var mErr *reconcile.MutationError
	if !errors.As(err, &mErr) {
		return err
	}
	snap, retryErr := mErr.Retry(ctx)
	if retryErr != nil {
		l.Warn("Refetch after failed mutation failed", zap.Error(retryErr))
		return err
	}
	if printErr := printInstances(snap); printErr != nil {
		return printErr
	}
	return fmt.Errorf("server refused %s: %w", mErr.Op, mErr.Err)
}
