package cmd

import (
	"fmt"
	"os"
	"strings"

	"planner/core/recurrence"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	previewFreq     string
	previewInterval int
	previewByDay    []string
	previewMonthDay int
	previewUntil    string
	previewCount    int
	previewAnchor   string
	previewRRule    string
	previewOutput   string
)

// previewReport is what the preview command prints.
type previewReport struct {
	Anchor string   `json:"anchor" yaml:"anchor"`
	RRule  string   `json:"rrule,omitempty" yaml:"rrule,omitempty"`
	Count  int      `json:"count" yaml:"count"`
	Dates  []string `json:"dates" yaml:"dates"`
}

// previewCmd expands a rule locally without touching the database.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the dates a recurrence rule produces",
	Long: `Expands a rule from an anchor date with the configured occurrence cap.

Examples:
  # Every Monday and Wednesday for four weeks
  planner preview --anchor 2024-01-01 --freq weekly --by-day MO,WE --count 8

  # Decode an RRULE as an external calendar would send it
  planner preview --anchor 2024-01-31 --rrule "RRULE:FREQ=MONTHLY;BYMONTHDAY=31" --output yaml`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewAnchor, "anchor", "", "Anchor date (YYYY-MM-DD)")
	previewCmd.Flags().StringVar(&previewFreq, "freq", "daily", "Frequency: daily, weekly, monthly or yearly")
	previewCmd.Flags().IntVar(&previewInterval, "interval", 1, "Repeat every N periods")
	previewCmd.Flags().StringSliceVar(&previewByDay, "by-day", nil, "Weekdays for weekly rules (MO,TU,...)")
	previewCmd.Flags().IntVar(&previewMonthDay, "by-month-day", 0, "Day of month for monthly rules")
	previewCmd.Flags().StringVar(&previewUntil, "until", "", "Last allowed date (YYYY-MM-DD)")
	previewCmd.Flags().IntVar(&previewCount, "count", 0, "Number of occurrences")
	previewCmd.Flags().StringVar(&previewRRule, "rrule", "", "RRULE text; overrides the rule flags")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "text", "Output format: text, json or yaml")
	_ = previewCmd.MarkFlagRequired("anchor")

	RootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	anchor, err := recurrence.ParseDate(previewAnchor)
	if err != nil {
		return fmt.Errorf("invalid anchor: %w", err)
	}

	var rule recurrence.Rule
	if previewRRule != "" {
		c, err := rt.ruleCodec()
		if err != nil {
			return err
		}
		var ok bool
		if rule, ok = c.Decode(previewRRule); !ok {
			return fmt.Errorf("%w: cannot decode %q", recurrence.ErrInvalidRule, previewRRule)
		}
	} else if rule, err = previewRuleFromFlags(); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	dates, err := recurrence.NewGenerator(rt.cfg.Recurrence.MaxOccurrences).Generate(rule, anchor)
	if err != nil {
		return err
	}

	report := previewReport{Anchor: recurrence.FormatDate(anchor), Count: len(dates), Dates: make([]string, len(dates))}
	for i, d := range dates {
		report.Dates[i] = recurrence.FormatDate(d)
	}
	if c, err := rt.ruleCodec(); err == nil {
		if text, ok := c.Encode(&rule); ok {
			report.RRule = text
		}
	}
	return printPreview(report)
}

func previewRuleFromFlags() (recurrence.Rule, error) {
	rule := recurrence.Rule{Interval: previewInterval}
	switch strings.ToLower(previewFreq) {
	case "daily":
		rule.Freq = recurrence.Daily{}
	case "weekly":
		weekly := recurrence.Weekly{}
		for _, code := range previewByDay {
			day, ok := recurrence.ParseWeekday(strings.TrimSpace(code))
			if !ok {
				return rule, fmt.Errorf("%w: unknown weekday %q", recurrence.ErrInvalidRule, code)
			}
			weekly.ByDay = append(weekly.ByDay, day)
		}
		rule.Freq = weekly
	case "monthly":
		rule.Freq = recurrence.Monthly{ByMonthDay: previewMonthDay}
	case "yearly":
		rule.Freq = recurrence.Yearly{}
	default:
		return rule, fmt.Errorf("%w: %q", recurrence.ErrUnsupportedFrequency, previewFreq)
	}

	switch {
	case previewCount > 0:
		rule.End = recurrence.Count(previewCount)
	case previewUntil != "":
		until, err := recurrence.ParseDate(previewUntil)
		if err != nil {
			return rule, fmt.Errorf("invalid until: %w", err)
		}
		rule.End = recurrence.Until(until)
	default:
		rule.End = recurrence.NoEnd()
	}
	return rule, nil
}

func printPreview(report previewReport) error {
	switch previewOutput {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		if report.RRule != "" {
			fmt.Println(report.RRule)
		}
		for _, d := range report.Dates {
			fmt.Println(d)
		}
		fmt.Printf("%d occurrences\n", report.Count)
	}
	return nil
}
