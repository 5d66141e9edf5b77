package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"farepay_app/internal/models"
	"farepay_app/internal/services"
	"farepay_app/internal/tasks"
)

// schedule_task enqueues a row on the scheduled-task queue by hand. Operators
// use it to replay a lost pending transaction from the provider statement
// (persist_pending_transaction), to run the stale-pending audit outside its
// recurring window, or to push a log_info marker through the worker as a
// liveness check.
func main() {
	taskName := flag.String("task_name", "", "registered task name (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "due time, RFC3339 or '2006-01-02 15:04' local (default: now)")
	taskType := flag.String("task_type", string(models.ScheduledTaskTypeOneTime), "onetime or recurring")
	recurring := flag.String("recurring", "", "recurrence rule for recurring tasks, e.g. FREQ=HOURLY;INTERVAL=1")
	maxAttempt := flag.Int("max_attempt", 3, "attempt budget per run")
	flag.Parse()

	if *taskName == "" {
		fmt.Println("Usage: schedule_task -task_name <name> [-arguments <json>] [-due <time>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Refuse names the worker has no handler for; such a row would only ever
	// end up in handler_not_found.
	tasks.DefineTasks()
	if _, ok := tasks.GetHandler(*taskName); !ok {
		log.Fatalf("Unknown task %q: no handler is registered for it", *taskName)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	due := time.Now()
	if *dueStr != "" {
		parsed, err := time.Parse(time.RFC3339, *dueStr)
		if err != nil {
			parsed, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		}
		if err != nil {
			log.Fatalf("Invalid due time, use RFC3339 or '2006-01-02 15:04': %v", err)
		}
		due = parsed
	}

	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	task, err := tasks.BuildScheduledTask(*taskName, args, due, recurringPtr, models.ScheduledTaskType(*taskType), *maxAttempt)
	if err != nil {
		log.Fatalf("Failed to build task: %v", err)
	}
	if err := db.Create(task).Error; err != nil {
		log.Fatalf("Failed to enqueue task: %v", err)
	}

	fmt.Printf("Enqueued task %d: %s due %s (%s)\n", task.ID, task.TaskName, task.Due.Format(time.RFC3339), task.TaskType)
}
