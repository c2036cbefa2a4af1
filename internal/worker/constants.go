package worker

// Log Messages - Worker Pool
const (
	LogMsgWorkerJobFailed   = "Worker job failed"
	LogMsgWorkerJobPanicked = "Worker job panicked"
	LogMsgWorkerJobDone     = "Worker job finished"
	LogMsgWorkerQueueFull   = "Worker queue full, job dropped"
)
