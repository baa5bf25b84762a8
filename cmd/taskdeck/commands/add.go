package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/recurrence"
	"github.com/benvon/taskdeck/internal/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var listID string
	var repeat string
	var every int
	var on string
	var at string
	var until string
	var times int
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a task, optionally recurring",
		Long:  "Create a task. With --repeat it becomes the root of a recurring series anchored on today.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			content := validation.SanitizeText(args[0])
			if content == "" {
				return fmt.Errorf("task content cannot be empty")
			}
			task := &models.Task{
				ID:      uuid.New().String(),
				Content: content,
				ListID:  listID,
				Status:  models.StatusTodo,
			}

			if repeat != "" {
				rule, err := buildRule(repeat, every, on, at, until, times)
				if err != nil {
					return err
				}
				if !recurrence.IsValid(*rule) {
					return fmt.Errorf("the recurrence flags do not form a valid rule")
				}
				task.Recurrence = rule
			}

			if err := e.store.Save(context.Background(), task); err != nil {
				return fmt.Errorf("failed to save task: %w", err)
			}
			fmt.Printf("Added %s\n", task.ID)
			if task.Recurrence != nil {
				fmt.Printf("Repeats: %s\n", recurrence.Describe(*task.Recurrence, task.EffectiveDate()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "list to file the task under")
	cmd.Flags().StringVar(&repeat, "repeat", "", "recurrence type: daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&every, "every", 1, "recurrence interval")
	cmd.Flags().StringVar(&on, "on", "", "weekly: comma-separated weekdays 0-6 (Sunday=0); monthly: days of month")
	cmd.Flags().StringVar(&at, "at", "", "reminder clock time HH:MM")
	cmd.Flags().StringVar(&until, "until", "", "last occurrence date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&times, "times", 0, "stop after N occurrences")
	return cmd
}

func buildRule(repeat string, every int, on, at, until string, times int) (*models.RecurrenceRule, error) {
	rule := &models.RecurrenceRule{
		Type:     models.RecurrenceType(strings.ToLower(repeat)),
		Interval: every,
	}
	if at != "" {
		rule.ReminderTime = at
	}
	if on != "" {
		nums, err := parseIntList(on)
		if err != nil {
			return nil, err
		}
		switch rule.Type {
		case models.RecurrenceWeekly:
			rule.DaysOfWeek = nums
		case models.RecurrenceMonthly, models.RecurrenceYearly:
			rule.ByMonthDay = nums
		default:
			return nil, fmt.Errorf("--on has no meaning for %s recurrence", rule.Type)
		}
	}
	if until != "" && times > 0 {
		return nil, fmt.Errorf("--until and --times are mutually exclusive")
	}
	if until != "" {
		day, err := parseDateArg(until)
		if err != nil {
			return nil, err
		}
		rule.EndCondition = &models.EndCondition{Type: models.EndByDate, EndDate: &day}
	}
	if times > 0 {
		rule.EndCondition = &models.EndCondition{Type: models.EndByCount, Count: times}
	}
	return rule, nil
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in --on", p)
		}
		out = append(out, n)
	}
	return out, nil
}
