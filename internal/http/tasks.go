package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/settingsstore"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// TaskQueue adds tasks and reports their status. *tasks.Client implements it.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// JobScheduler runs maintenance jobs on their schedules.
// *scheduler.MaintenanceScheduler implements it.
type JobScheduler interface {
	RunNow(ctx context.Context, name string) (string, error)
	Reschedule(ctx context.Context) error
	NextRuns() map[string]time.Time
}

// JobSettings reads and changes job schedules. *settingsstore.SettingsStore implements it.
type JobSettings interface {
	Jobs() []settingsstore.Job
	JobConfigInfo(name string) (settingsstore.JobConfigInfo, error)
	JobStatus(name string) (settingsstore.JobStatus, error)
	SetJobEnabled(name string, enabled bool) error
	SetJobSchedule(name, schedule string) error
	ClearJobSettings(name string) error
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue     TaskQueue
	scheduler JobScheduler
	settings  JobSettings
}

// NewTasksController creates a new TasksController. scheduler and settings
// may be nil when scheduling is disabled.
func NewTasksController(queue TaskQueue, scheduler JobScheduler, settings JobSettings) *TasksController {
	return &TasksController{queue: queue, scheduler: scheduler, settings: settings}
}

func (tc *TasksController) RegisterRoutes(group gin.IRoutes) {
	group.GET("/types", tc.ListTaskTypes)
	group.GET("/jobs", tc.ListJobs)
	group.PUT("/jobs/:name", tc.UpdateJob)
	group.POST("/jobs/:name/reset", tc.ResetJob)
	group.GET("/:id", tc.GetTaskStatus)
	group.POST("/:type/run", tc.RunTask)
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": tasks.Types(),
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
// Without parameters the run goes through the scheduler so the job's last
// status is recorded. Parameters build the task directly.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req tasks.RunParams
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var (
		id  string
		err error
	)
	if tc.scheduler != nil && req == (tasks.RunParams{}) {
		id, err = tc.scheduler.RunNow(c.Request.Context(), taskType)
		if errors.Is(err, settingsstore.ErrUnknownJob) {
			respondBadRequest(c, "unknown task type: "+taskType)
			return
		}
	} else {
		var task backlite.Task
		task, err = tasks.NewTask(taskType, req)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		id, err = tc.queue.Enqueue(c.Request.Context(), task)
	}
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

// JobInfo is the configuration and last outcome of a maintenance job.
type JobInfo struct {
	settingsstore.JobConfigInfo
	LastRun settingsstore.JobStatus `json:"last_run"`
	NextRun *time.Time              `json:"next_run,omitempty"`
}

func (tc *TasksController) jobInfo(name string, next map[string]time.Time) (JobInfo, error) {
	cfg, err := tc.settings.JobConfigInfo(name)
	if err != nil {
		return JobInfo{}, err
	}
	status, err := tc.settings.JobStatus(name)
	if err != nil {
		return JobInfo{}, err
	}
	info := JobInfo{JobConfigInfo: cfg, LastRun: status}
	if t, ok := next[name]; ok {
		info.NextRun = &t
	}
	return info, nil
}

func (tc *TasksController) nextRuns() map[string]time.Time {
	if tc.scheduler == nil {
		return nil
	}
	return tc.scheduler.NextRuns()
}

// ListJobs handles GET /api/tasks/jobs
func (tc *TasksController) ListJobs(c *gin.Context) {
	if tc.settings == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []JobInfo{}})
		return
	}
	next := tc.nextRuns()
	jobs := tc.settings.Jobs()
	out := make([]JobInfo, 0, len(jobs))
	for _, job := range jobs {
		info, err := tc.jobInfo(job.Name, next)
		if err != nil {
			respondInternalError(c, err, "job "+job.Name)
			return
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// UpdateJobRequest changes a job's schedule. Omitted fields are kept.
type UpdateJobRequest struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
}

// UpdateJob handles PUT /api/tasks/jobs/:name
func (tc *TasksController) UpdateJob(c *gin.Context) {
	if tc.settings == nil {
		respondNotFound(c, "job")
		return
	}
	name := c.Param("name")
	var req UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Schedule != nil {
		if err := tc.settings.SetJobSchedule(name, *req.Schedule); err != nil {
			tc.respondJobError(c, err)
			return
		}
	}
	if req.Enabled != nil {
		if err := tc.settings.SetJobEnabled(name, *req.Enabled); err != nil {
			tc.respondJobError(c, err)
			return
		}
	}
	tc.reschedule(c, name)
}

// ResetJob handles POST /api/tasks/jobs/:name/reset. Stored overrides are
// dropped so environment and defaults apply again.
func (tc *TasksController) ResetJob(c *gin.Context) {
	if tc.settings == nil {
		respondNotFound(c, "job")
		return
	}
	name := c.Param("name")
	if err := tc.settings.ClearJobSettings(name); err != nil {
		tc.respondJobError(c, err)
		return
	}
	tc.reschedule(c, name)
}

func (tc *TasksController) reschedule(c *gin.Context, name string) {
	if tc.scheduler != nil {
		if err := tc.scheduler.Reschedule(context.WithoutCancel(c.Request.Context())); err != nil {
			respondInternalError(c, err, "reschedule")
			return
		}
	}
	info, err := tc.jobInfo(name, tc.nextRuns())
	if err != nil {
		tc.respondJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (tc *TasksController) respondJobError(c *gin.Context, err error) {
	if errors.Is(err, settingsstore.ErrUnknownJob) {
		respondNotFound(c, "job")
		return
	}
	if errors.Is(err, settingsstore.ErrInvalidSchedule) {
		respondBadRequest(c, err.Error())
		return
	}
	respondInternalError(c, err, "job settings")
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
