package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/yourorg/taskhub/internal/domain"
	"github.com/yourorg/taskhub/internal/replica"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "task":
		handleTask(args)
	case "message":
		handleMessage(args)
	case "stats":
		showStats(args)
	case "watch":
		watch(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: taskhub auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleTask(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: taskhub task <list|create|update|delete|view>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listTasks(args[1:])
	case "create":
		createTask(args[1:])
	case "update":
		updateTask(args[1:])
	case "delete":
		deleteTask(args[1:])
	case "view":
		viewTask(args[1:])
	default:
		fmt.Printf("unknown task command: %s\n", subCmd)
	}
}

func handleMessage(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: taskhub message <send>")
		return
	}

	switch args[0] {
	case "send":
		sendMessage(args[1:])
	default:
		fmt.Printf("unknown message command: %s\n", args[0])
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "role: admin, manager or employee (default employee)")

	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		fmt.Println("Error: name, email, and password are required")
		fs.PrintDefaults()
		return
	}

	client := newClient()
	created, err := client.Register(context.Background(), domain.User{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     domain.Role(*role),
	})
	if err != nil {
		fmt.Printf("✗ Registration failed: %v\n", err)
		return
	}
	fmt.Printf("✓ User registered: %s (id %d)\n", created.Email, created.ID)
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	client := newClient()
	result, err := client.Login(context.Background(), *email, *password)
	if err != nil {
		fmt.Printf("✗ Login failed: %v\n", err)
		return
	}
	saveSession(result.Token, result.User.Name)
	fmt.Printf("✓ Logged in as: %s\n", result.User.Name)
}

func logoutUser() {
	os.Remove(tokenFile())
	os.Remove(nameFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	if name := loadName(); name != "" {
		fmt.Printf("✓ Logged in as: %s\n", name)
		return
	}
	fmt.Println("Not logged in")
}

// Task commands
func listTasks(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", replica.StatusAll, "status filter: all, pending, in-progress or completed")
	search := fs.String("search", "", "match against title, description and assignee")

	fs.Parse(args)

	client := newClient()
	tasks, err := client.Tasks(context.Background())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	visible := replica.NewestFirst(replica.Filter(tasks, *status, *search))
	printTasks(visible)
}

func createTask(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	assignee := fs.String("assignee", "", "assignee display name")
	assigneeID := fs.Int64("assignee-id", 0, "assignee user id")
	priority := fs.String("priority", "", "priority: low, medium or high (default medium)")
	dueDate := fs.String("due", "", "due date as YYYY-MM-DD")

	fs.Parse(args)

	if *title == "" {
		fmt.Println("Error: title is required")
		fs.PrintDefaults()
		return
	}

	client := newClient()
	created, err := client.CreateTask(context.Background(), domain.Task{
		Title:        *title,
		Description:  *description,
		AssignedTo:   *assignee,
		AssignedToID: *assigneeID,
		CreatedBy:    loadName(),
		Priority:     domain.Priority(*priority),
		DueDate:      *dueDate,
	})
	if err != nil {
		fmt.Printf("✗ Create failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Task created: %d %s\n", created.ID, created.Title)
}

func updateTask(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	assignee := fs.String("assignee", "", "new assignee display name")
	priority := fs.String("priority", "", "new priority")
	status := fs.String("status", "", "new status: pending, in-progress or completed")
	dueDate := fs.String("due", "", "new due date as YYYY-MM-DD")

	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: taskhub task update [flags] <task-id>")
		fs.PrintDefaults()
		return
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid task id %q\n", fs.Arg(0))
		return
	}

	var upd domain.TaskUpdate
	if *title != "" {
		upd.Title = title
	}
	if *description != "" {
		upd.Description = description
	}
	if *assignee != "" {
		upd.AssignedTo = assignee
	}
	if *priority != "" {
		p := domain.Priority(*priority)
		upd.Priority = &p
	}
	if *status != "" {
		s := domain.Status(*status)
		upd.Status = &s
	}
	if *dueDate != "" {
		upd.DueDate = dueDate
	}

	client := newClient()
	updated, err := client.UpdateTask(context.Background(), id, upd, loadName())
	if err != nil {
		fmt.Printf("✗ Update failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Task updated: %d %s [%s]\n", updated.ID, updated.Title, updated.Status)
}

func deleteTask(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: taskhub task delete <task-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid task id %q\n", args[0])
		return
	}

	client := newClient()
	if err := client.DeleteTask(context.Background(), id); err != nil {
		fmt.Printf("✗ Delete failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Task deleted: %d\n", id)
}

func viewTask(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: taskhub task view <task-id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid task id %q\n", args[0])
		return
	}

	ctx := context.Background()
	client := newClient()
	tasks, err := client.Tasks(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var task *domain.Task
	for i := range tasks {
		if tasks[i].ID == id {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		fmt.Printf("✗ Task not found: %d\n", id)
		return
	}

	fmt.Printf("Task %d: %s\n", task.ID, task.Title)
	fmt.Printf("  Status:      %s\n", task.Status)
	fmt.Printf("  Priority:    %s\n", task.Priority)
	fmt.Printf("  Assigned to: %s\n", task.AssignedTo)
	fmt.Printf("  Created by:  %s\n", task.CreatedBy)
	fmt.Printf("  Due:         %s\n", task.DueDate)
	if task.Description != "" {
		fmt.Printf("  %s\n", task.Description)
	}

	msgs, err := client.Messages(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nThread:")
	for _, m := range msgs {
		if m.TaskID != id {
			continue
		}
		fmt.Printf("  [%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.UserName, m.Content)
	}
}

// Message commands
func sendMessage(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	taskID := fs.Int64("task", 0, "task id the message belongs to")
	content := fs.String("content", "", "message body")

	fs.Parse(args)

	if *taskID == 0 || *content == "" {
		fmt.Println("Error: task and content are required")
		fs.PrintDefaults()
		return
	}

	client := newClient()
	created, err := client.SendMessage(context.Background(), domain.Message{
		TaskID:   *taskID,
		UserName: loadName(),
		Content:  *content,
	})
	if err != nil {
		fmt.Printf("✗ Send failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Message sent: %d\n", created.ID)
}

func showStats(args []string) {
	_ = args
	client := newClient()
	stats, err := client.Stats(context.Background())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tPENDING\tIN PROGRESS\tCOMPLETED\tOVERDUE")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n",
		stats.Tasks.Total,
		stats.Tasks.Pending,
		stats.Tasks.InProgress,
		stats.Tasks.Completed,
		stats.Tasks.Overdue,
	)
	w.Flush()

	if len(stats.Online) > 0 {
		fmt.Printf("\nOnline: %v\n", stats.Online)
	}
}

// watch follows the live feed and reprints the task list after every
// update until interrupted.
func watch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	status := fs.String("status", replica.StatusAll, "status filter")
	search := fs.String("search", "", "search filter")

	fs.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := newClient()
	rep := replica.New(nil)

	if err := client.Sync(ctx, rep); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printTasks(rep.VisibleTasks(*status, *search))

	err := client.Watch(ctx, rep, loadName(), func(event string) {
		fmt.Printf("\n-- %s --\n", event)
		printTasks(rep.VisibleTasks(*status, *search))
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("✗ Connection lost: %v\n", err)
		os.Exit(1)
	}
}

// Helper functions
func printTasks(tasks []domain.Task) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.Priority, t.AssignedTo, t.DueDate)
	}
	w.Flush()
}

func newClient() *replica.Client {
	client := replica.NewClient(getServerURL(), nil)
	if token := loadToken(); token != "" {
		client.SetToken(token)
	}
	return client
}

func getServerURL() string {
	if url := os.Getenv("TASKHUB_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return home + "/.taskhub"
}

func tokenFile() string { return configDir() + "/token" }
func nameFile() string  { return configDir() + "/name" }

func saveSession(token, name string) {
	os.MkdirAll(configDir(), 0700)
	os.WriteFile(tokenFile(), []byte(token), 0600)
	os.WriteFile(nameFile(), []byte(name), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func loadName() string {
	data, _ := os.ReadFile(nameFile())
	return string(data)
}

func printUsage() {
	fmt.Print(`TaskHub CLI

Usage:
  taskhub <command> [options]

Commands:
  auth     User authentication (register, login, logout, who)
  task     Task operations (list, create, update, delete, view)
  message  Send a chat message (send)
  stats    Show the dashboard summary
  watch    Follow the live feed and reprint the task list on changes
  help     Show this help message

Environment Variables:
  TASKHUB_SERVER    Server base URL (default: http://localhost:8080)

Examples:
  taskhub auth register -name "Sarah Johnson" -email sarah@example.com -password pass
  taskhub auth login -email sarah@example.com -password pass
  taskhub task create -title "Fix bug" -priority high -due 2025-10-01
  taskhub task update -status completed 1721900000000
  taskhub watch -status pending -search bug
`)
}
