package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"planner/core/recurrence"
	"planner/core/series"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	instanceScope    string
	instanceDryRun   bool
	yesConfirm       bool
	instanceOwner    string
	instanceSeries   string
	instanceAnchor   string
	instanceRRule    string
	instanceTitle    string
	instanceDesc     string
	instanceStart    string
	instanceDuration int
	instanceDone     bool
	instanceDate     string
)

// instanceCmd is the parent command for direct database edits.
var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Create, list, edit and delete planner items against the local database",
	Long: `Works on the configured database directly, without a running server.

Update and delete print the plan first. Edits that reach more than one
instance ask for confirmation unless --yes is given; --dry-run only prints.

Examples:
  # Weekly series on Mondays
  planner instance create --owner alice --title Standup --anchor 2024-01-01 --rrule "RRULE:FREQ=WEEKLY;BYDAY=MO"

  # Rename this and every later occurrence
  planner instance update <id> --scope following --title "New standup"

  # Preview deleting a whole series
  planner instance delete <id> --scope all --dry-run`,
}

var instanceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a series, or a standalone item without --rrule",
	RunE:  runInstanceCreate,
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the instances of an owner or of one series",
	RunE:  runInstanceList,
}

var instanceUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an instance at this, following or all scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceUpdate,
}

var instanceDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an instance at this, following or all scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceDelete,
}

func init() {
	addCreateFlags(instanceCreateCmd)
	addPartitionFlags(instanceListCmd)
	addUpdateFlags(instanceUpdateCmd)
	for _, c := range []*cobra.Command{instanceUpdateCmd, instanceDeleteCmd} {
		c.Flags().StringVar(&instanceScope, "scope", string(series.ScopeThis), "Scope: this, following or all")
		c.Flags().BoolVar(&instanceDryRun, "dry-run", false, "Print the plan without applying it")
		c.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm changes to more than one instance")
	}

	instanceCmd.AddCommand(instanceCreateCmd, instanceListCmd, instanceUpdateCmd, instanceDeleteCmd)
	RootCmd.AddCommand(instanceCmd)
}

func addCreateFlags(c *cobra.Command) {
	c.Flags().StringVar(&instanceOwner, "owner", "", "Owner id")
	c.Flags().StringVar(&instanceAnchor, "anchor", "", "First date (YYYY-MM-DD)")
	c.Flags().StringVar(&instanceRRule, "rrule", "", "Recurrence as RRULE text")
	c.Flags().StringVar(&instanceTitle, "title", "", "Title")
	c.Flags().StringVar(&instanceDesc, "description", "", "Description")
	c.Flags().StringVar(&instanceStart, "start-time", "", "Start time (HH:MM)")
	c.Flags().IntVar(&instanceDuration, "duration", 0, "Duration in minutes")
	_ = c.MarkFlagRequired("owner")
	_ = c.MarkFlagRequired("anchor")
	_ = c.MarkFlagRequired("title")
}

// addPartitionFlags selects either every instance of an owner or one series.
func addPartitionFlags(c *cobra.Command) {
	c.Flags().StringVar(&instanceOwner, "owner", "", "Owner id")
	c.Flags().StringVar(&instanceSeries, "series", "", "Series id")
	c.MarkFlagsOneRequired("owner", "series")
	c.MarkFlagsMutuallyExclusive("owner", "series")
}

func addUpdateFlags(c *cobra.Command) {
	c.Flags().StringVar(&instanceTitle, "title", "", "New title")
	c.Flags().StringVar(&instanceDesc, "description", "", "New description")
	c.Flags().StringVar(&instanceStart, "start-time", "", "New start time (HH:MM)")
	c.Flags().IntVar(&instanceDuration, "duration", 0, "New duration in minutes")
	c.Flags().BoolVar(&instanceDone, "completed", false, "Completion flag")
	c.Flags().StringVar(&instanceDate, "date", "", "Move to date (YYYY-MM-DD)")
	c.Flags().StringVar(&instanceRRule, "rrule", "", "New recurrence as RRULE text")
}

// openService loads config and returns the planner service over the configured database.
func openService(ctx context.Context) (*runtime, *series.Service, error) {
	rt, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}
	feature, _, err := rt.openPlanner(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rt, feature.Service(), nil
}

// decodeRule decodes --rrule text with the configured timezone.
func (r *runtime) decodeRule(text string) (*recurrence.Rule, error) {
	c, err := r.ruleCodec()
	if err != nil {
		return nil, err
	}
	rule, ok := c.Decode(text)
	if !ok {
		return nil, fmt.Errorf("%w: cannot decode %q", recurrence.ErrInvalidRule, text)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

func runInstanceCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, service, err := openService(ctx)
	if err != nil {
		return err
	}

	req, err := createRequestFromFlags(rt)
	if err != nil {
		return err
	}

	created, err := service.CreateSeries(ctx, req)
	if err != nil {
		return err
	}
	rt.logger.Info("Created", zap.Int("instances", len(created)), zap.Bool("recurring", req.Rule != nil))
	return printInstances(created)
}

// createRequestFromFlags builds a create request from the create flags.
func createRequestFromFlags(rt *runtime) (series.CreateRequest, error) {
	anchor, err := recurrence.ParseDate(instanceAnchor)
	if err != nil {
		return series.CreateRequest{}, fmt.Errorf("invalid anchor: %w", err)
	}
	req := series.CreateRequest{
		Anchor:  anchor,
		OwnerID: instanceOwner,
		Template: series.Template{
			Title:           instanceTitle,
			Description:     instanceDesc,
			StartTime:       instanceStart,
			DurationMinutes: instanceDuration,
		},
	}
	if instanceRRule != "" {
		if req.Rule, err = rt.decodeRule(instanceRRule); err != nil {
			return req, err
		}
	}
	return req, nil
}

// updateRequestFromFlags builds an update request from the flags the user set.
func updateRequestFromFlags(cmd *cobra.Command, rt *runtime, id string) (series.UpdateRequest, error) {
	scope, err := series.ParseScope(instanceScope)
	if err != nil {
		return series.UpdateRequest{}, err
	}
	req := series.UpdateRequest{ID: id, Scope: scope}
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.Fields.Title = &instanceTitle
	}
	if flags.Changed("description") {
		req.Fields.Description = &instanceDesc
	}
	if flags.Changed("start-time") {
		req.Fields.StartTime = &instanceStart
	}
	if flags.Changed("duration") {
		req.Fields.DurationMinutes = &instanceDuration
	}
	if flags.Changed("completed") {
		req.Fields.Completed = &instanceDone
	}
	if flags.Changed("date") {
		date, err := recurrence.ParseDate(instanceDate)
		if err != nil {
			return req, fmt.Errorf("invalid date: %w", err)
		}
		req.Fields.Date = &date
	}
	if instanceRRule != "" {
		if req.Rule, err = rt.decodeRule(instanceRRule); err != nil {
			return req, err
		}
	}
	if req.Fields.IsEmpty() && req.Rule == nil {
		return req, fmt.Errorf("nothing to update: set at least one field flag or --rrule")
	}
	return req, nil
}

func runInstanceList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, service, err := openService(ctx)
	if err != nil {
		return err
	}

	var list []series.Instance
	if instanceSeries != "" {
		list, err = service.ListInstances(ctx, instanceSeries)
	} else {
		list, err = service.ListOwnerInstances(ctx, instanceOwner)
	}
	if err != nil {
		return err
	}
	return printInstances(list)
}

func runInstanceUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, service, err := openService(ctx)
	if err != nil {
		return err
	}

	req, err := updateRequestFromFlags(cmd, rt, args[0])
	if err != nil {
		return err
	}

	plan, err := service.PlanUpdate(ctx, req)
	if err != nil {
		return err
	}
	if !proceed(rt.logger, plan) {
		return nil
	}

	updated, err := service.UpdateInstance(ctx, req)
	if err != nil {
		return err
	}
	rt.logger.Info("Successfully updated instances", zap.Int("count", len(updated)))
	return nil
}

func runInstanceDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, service, err := openService(ctx)
	if err != nil {
		return err
	}

	scope, err := series.ParseScope(instanceScope)
	if err != nil {
		return err
	}
	req := series.DeleteRequest{ID: args[0], Scope: scope}

	plan, err := service.PlanDelete(ctx, req)
	if err != nil {
		return err
	}
	if !proceed(rt.logger, plan) {
		return nil
	}

	removed, err := service.DeleteInstance(ctx, req)
	if err != nil {
		return err
	}
	rt.logger.Info("Successfully deleted instances", zap.Int("count", len(removed)))
	return nil
}

// proceed prints the plan and decides whether to apply it.
func proceed(l *zap.Logger, plan *series.Plan) bool {
	printPlanReport(l, plan)
	if instanceDryRun {
		l.Info("Dry-run mode: No changes were made.")
		return false
	}
	if len(plan.Actions) == 0 {
		l.Info("No actions required.")
		return false
	}
	if plan.Affected() > 1 && !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return false
	}
	return true
}

// printPlanReport prints a plan summary and a sample of its actions.
func printPlanReport(l *zap.Logger, plan *series.Plan) {
	s := plan.Summary
	fields := []zap.Field{
		zap.String("op", plan.Op),
		zap.String("scope", string(plan.Scope)),
		zap.Int("upserts", s.Upserts),
		zap.Int("deletes", s.Deletes),
		zap.Int("series_saves", s.SeriesSaves),
		zap.Int("preserved_exceptions", s.Preserved),
		zap.Int("generated", s.Generated),
	}
	if s.SplitDate != nil {
		fields = append(fields, zap.String("split_date", recurrence.FormatDate(*s.SplitDate)))
	}
	l.Info("Planned changes", fields...)

	maxShow := min(5, len(plan.Actions))
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\nAuto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nType 'yes' to apply changes to more than one instance: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

func printInstances(list []series.Instance) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
