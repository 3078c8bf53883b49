package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"TaskAPI/internal/client"
	"TaskAPI/internal/dto"

	"github.com/urfave/cli/v3"
)

const defaultServer = "http://localhost:8080"

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "taskctl",
		Usage: "Manage tasks on a Task API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Task API base URL",
				Value:   defaultServer,
				Sources: cli.EnvVars("TASKS_API_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all tasks",
				Action: runList,
			},
			{
				Name:   "newest",
				Usage:  "List the three most recently created tasks",
				Action: runNewest,
			},
			{
				Name:      "show",
				Usage:     "Show a task",
				ArgsUsage: "<id>",
				Action:    runShow,
			},
			{
				Name:   "add",
				Usage:  "Create a task",
				Flags:  taskFlags(),
				Action: runAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update the given fields of a task",
				ArgsUsage: "<id>",
				Flags:     taskFlags(),
				Action:    runEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a task",
				ArgsUsage: "<id>",
				Action:    runDelete,
			},
		},
		DefaultCommand: "list",
	}
}

func taskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Task title (at least 5 characters)"},
		&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Task content"},
		&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "Low, Medium or High"},
		&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "Due date, YYYY-MM-DD or RFC3339"},
	}
}

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("server"))
}

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func runList(ctx context.Context, cmd *cli.Command) error {
	tasks, err := newClient(cmd).List(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	return printTable(out(cmd), tasks)
}

func runNewest(ctx context.Context, cmd *cli.Command) error {
	tasks, err := newClient(cmd).Latest(ctx)
	if err != nil {
		return fmt.Errorf("newest tasks: %w", err)
	}
	return printTable(out(cmd), tasks)
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: taskctl show <id>")
	}
	t, err := newClient(cmd).Get(ctx, id)
	if err != nil {
		return fmt.Errorf("show task: %w", err)
	}
	printTask(out(cmd), t)
	return nil
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	t, err := newClient(cmd).Create(ctx, dto.CreateTaskRequest{
		Title:    cmd.String("title"),
		Content:  cmd.String("content"),
		Priority: cmd.String("priority"),
		DueDate:  cmd.String("due"),
	})
	if err != nil {
		return reportValidation(out(cmd), "create task", err)
	}
	printTask(out(cmd), t)
	return nil
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: taskctl edit <id> [--title ...] [--content ...] [--priority ...] [--due ...]")
	}
	var req dto.UpdateTaskRequest
	if cmd.IsSet("title") {
		v := cmd.String("title")
		req.Title = &v
	}
	if cmd.IsSet("content") {
		v := cmd.String("content")
		req.Content = &v
	}
	if cmd.IsSet("priority") {
		v := cmd.String("priority")
		req.Priority = &v
	}
	if cmd.IsSet("due") {
		v := cmd.String("due")
		req.DueDate = &v
	}

	t, err := newClient(cmd).Update(ctx, id, req)
	if err != nil {
		return reportValidation(out(cmd), "update task", err)
	}
	printTask(out(cmd), t)
	return nil
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: taskctl delete <id>")
	}
	msg, err := newClient(cmd).Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	fmt.Fprintln(out(cmd), msg)
	return nil
}

// reportValidation prints field errors one per line before returning err.
func reportValidation(w io.Writer, op string, err error) error {
	var ve *client.ValidationError
	if errors.As(err, &ve) {
		keys := make([]string, 0, len(ve.Fields))
		for k := range ve.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, ve.Fields[k])
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func printTable(w io.Writer, tasks []dto.TaskResponse) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIORITY\tDUE\tCREATED\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Priority,
			t.DueDate.Format("2006-01-02"),
			t.CreatedAt.Format("2006-01-02 15:04"),
			t.Title,
		)
	}
	return tw.Flush()
}

func printTask(w io.Writer, t dto.TaskResponse) {
	fmt.Fprintf(w, "ID:       %s\n", t.ID)
	fmt.Fprintf(w, "Title:    %s\n", t.Title)
	fmt.Fprintf(w, "Priority: %s\n", t.Priority)
	fmt.Fprintf(w, "Due:      %s\n", t.DueDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated:  %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "\n%s\n", t.Content)
}
