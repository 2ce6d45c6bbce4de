package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelgen/internal/fileutil"
	"reelgen/internal/queue"
	"reelgen/internal/task"
	"reelgen/internal/workflow"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Create, run, and inspect reel tasks",
	}
	taskCmd.AddCommand(newTaskCreateCommand(ctx))
	taskCmd.AddCommand(newTaskAddCommand(ctx))
	taskCmd.AddCommand(newTaskRunCommand(ctx))
	taskCmd.AddCommand(newTaskStatusCommand(ctx))
	taskCmd.AddCommand(newTaskFinalCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskReindexCommand(ctx))
	return taskCmd
}

func newTaskCreateCommand(ctx *commandContext) *cobra.Command {
	var opts task.Options
	var images []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task and optionally attach images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				// Reject unusable files before a task directory exists.
				for _, image := range images {
					if _, err := task.NormalizeExtension(filepath.Ext(image)); err != nil {
						return err
					}
					if _, err := os.Stat(image); err != nil {
						return fmt.Errorf("image %s: %w", image, err)
					}
				}
				id, err := svc.CreateTask(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if err := addImages(cmd, svc, id, images); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "Business name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Business description")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Content mode (promo, review, story)")
	cmd.Flags().Float64Var(&opts.TrimLengthSeconds, "cut-length", 0, "Seconds kept from each clip (0 keeps clips whole)")
	cmd.Flags().StringSliceVarP(&images, "image", "i", nil, "Image to attach (repeatable)")
	return cmd
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <image>...",
		Short: "Attach images to a task that has not started",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				return addImages(cmd, svc, args[0], args[1:])
			})
		},
	}
}

func addImages(cmd *cobra.Command, svc *workflow.Service, id string, images []string) error {
	out := cmd.OutOrStdout()
	for _, image := range images {
		dst, err := svc.AddAsset(cmd.Context(), id, filepath.Ext(image))
		if err != nil {
			return err
		}
		if err := fileutil.CopyFile(image, dst); err != nil {
			return fmt.Errorf("copy %s: %w", image, err)
		}
		fmt.Fprintf(out, "Added %s as %s\n", image, filepath.Base(dst))
	}
	return nil
}

func newTaskRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task-id>",
		Short: "Run or resume the pipeline for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				if err := svc.Run(runCtx, args[0]); err != nil {
					if runCtx.Err() != nil {
						return context.Canceled
					}
					return err
				}
				final, err := svc.FinalArtifact(runCtx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reel ready: %s\n", final)
				return nil
			})
		},
	}
}

func newTaskStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the task document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				doc, err := svc.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, doc)
				}
				printDocument(cmd, doc)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw task document")
	return cmd
}

func printDocument(cmd *cobra.Command, doc task.Document) {
	out := cmd.OutOrStdout()
	completed := make(map[task.Stage]bool, len(doc.Completed))
	for _, s := range doc.Completed {
		completed[s] = true
	}
	fmt.Fprintf(out, "Task:      %s\n", doc.TaskID)
	fmt.Fprintf(out, "Business:  %s\n", doc.Options.Name)
	fmt.Fprintf(out, "Mode:      %s\n", doc.Options.EffectiveMode())
	fmt.Fprintf(out, "Images:    %d\n", len(doc.Extensions))
	fmt.Fprintf(out, "Finished:  %s\n", yesNo(completed[task.StageFinish]))

	rows := make([][]string, 0, len(task.Stages))
	for _, s := range task.Stages {
		rows = append(rows, []string{strconv.Itoa(s.Position() + 1), string(s), yesNo(completed[s])})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Stage", "Done"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))

	if len(doc.Script) > 0 {
		fmt.Fprintln(out, "Script:")
		for i, line := range doc.Script {
			fmt.Fprintf(out, "  %d. %s\n", i+1, line)
		}
	}
}

func newTaskFinalCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "final <task-id>",
		Short: "Print the path of the finished reel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				final, err := svc.FinalArtifact(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), final)
				return nil
			})
		},
	}
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks from the status index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, err := queue.ParseStatus(value)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				entries, err := svc.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEntries(entries))
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTotals(stats))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (pending, running, failed, completed)")
	return cmd
}

func renderTotals(stats map[queue.Status]int) string {
	parts := make([]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		if n := stats[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", status, n))
		}
	}
	return "Totals: " + strings.Join(parts, ", ")
}

func renderEntries(entries []*queue.Entry) string {
	total := strconv.Itoa(len(task.Stages))
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		detail := ""
		if entry.Status == queue.StatusFailed {
			detail = strings.TrimSpace(entry.ErrorKind + " " + string(entry.LastAttempted))
		}
		rows = append(rows, []string{
			entry.TaskID,
			entry.Name,
			string(entry.Status),
			strconv.Itoa(entry.AssetCount),
			strconv.Itoa(entry.Progress()) + "/" + total,
			detail,
			entry.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(
		[]string{"ID", "Business", "Status", "Images", "Stages", "Failure", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func newTaskReindexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the status index from task documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *workflow.Service) error {
				count, err := svc.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d task(s)\n", count)
				return nil
			})
		},
	}
}
