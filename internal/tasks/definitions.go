package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register payment tasks
	RegisterHandler(PersistTransactionTask.TaskID(), PersistTransactionTask.HandleExecution)
	RegisterHandler(StalePendingAuditTask.TaskID(), StalePendingAuditTask.HandleExecution)
}
