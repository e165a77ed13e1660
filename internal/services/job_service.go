package services

import (
	"github.com/jcastellanos/credifacil-api/internal/jobs"
)

// JobService exposes worker status and manual triggers for the scheduled
// maintenance jobs.
type JobService struct {
	worker *jobs.Worker
}

// NewJobService creates a new job service
func NewJobService(worker *jobs.Worker) *JobService {
	return &JobService{
		worker: worker,
	}
}

// GetStatus reports the worker pool's counters
func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
	}
}

// Enqueue pushes a job onto the worker queue
func (s *JobService) Enqueue(job jobs.Job) {
	s.worker.Enqueue(job)
}
