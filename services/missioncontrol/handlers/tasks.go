// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/datatypes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/jobs"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

// NotificationQueue is the jobs queue that fans task changes out to
// assigned agents.
const NotificationQueue = "notifications"

// notifyAgents submits a fire-and-forget notification job. Submission
// failures are logged and never affect the response.
func notifyAgents(dispatcher *jobs.Dispatcher, metrics *observability.Metrics, kind string, task *store.Task) {
	if dispatcher == nil {
		return
	}
	job := jobs.Job{
		Queue: NotificationQueue,
		Kind:  kind,
		Payload: map[string]any{
			"task_id": task.ID,
			"status":  task.Status,
		},
	}
	if task.AssignedAgentID != nil {
		job.Payload["agent_id"] = *task.AssignedAgentID
	}
	if err := dispatcher.Enqueue(job); err != nil {
		slog.Warn("could not enqueue task notification", "kind", kind, "task_id", task.ID, "error", err)
		return
	}
	if metrics != nil {
		metrics.JobsEnqueuedTotal.WithLabelValues(NotificationQueue, kind).Inc()
	}
}

func CreateTask(s *store.Store, dispatcher *jobs.Dispatcher, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}

		var req datatypes.CreateTaskRequest
		if !bindAndValidate(c, &req) {
			return
		}
		user := middleware.CurrentUser(c)
		task := &store.Task{
			BoardID:         &board.ID,
			Title:           req.Title,
			Description:     req.Description,
			Status:          req.Status,
			Priority:        req.Priority,
			DueAt:           req.DueAt,
			CreatedByUserID: &user.ID,
			AssignedAgentID: req.AssignedAgentID,
		}
		if err := s.CreateTask(c.Request.Context(), task); err != nil {
			renderError(c, err)
			return
		}

		msg := fmt.Sprintf("task created: %s", task.Title)
		if err := s.RecordActivity(c.Request.Context(), &store.ActivityEvent{
			EventType: "task_created",
			Message:   &msg,
			TaskID:    &task.ID,
			AgentID:   task.AssignedAgentID,
		}); err != nil {
			slog.Warn("could not record task activity", "task_id", task.ID, "error", err)
		}

		c.JSON(http.StatusCreated, task)
		// After the response: fan out to agents.
		notifyAgents(dispatcher, metrics, "task_created", task)
	}
}

func ListTasks(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		board := boardInOrg(c, s, member, c.Param("boardId"))
		if board == nil {
			return
		}
		tasks, err := s.ListBoardTasks(c.Request.Context(), board.ID, c.Query("status"))
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks})
	}
}

// taskInOrg loads a task and confirms board + organization scope.
func taskInOrg(c *gin.Context, s *store.Store, member *store.OrganizationMember, taskID string) *store.Task {
	task, err := s.GetTask(c.Request.Context(), taskID)
	if err != nil {
		renderError(c, err)
		return nil
	}
	if task.BoardID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil
	}
	if boardInOrg(c, s, member, *task.BoardID) == nil {
		return nil
	}
	return task
}

func GetTask(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		task := taskInOrg(c, s, member, c.Param("taskId"))
		if task == nil {
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func UpdateTask(s *store.Store, dispatcher *jobs.Dispatcher, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		task := taskInOrg(c, s, member, c.Param("taskId"))
		if task == nil {
			return
		}

		var req datatypes.UpdateTaskRequest
		if !bindAndValidate(c, &req) {
			return
		}
		previousStatus := task.Status
		updated, err := s.UpdateTask(c.Request.Context(), task.ID, store.TaskPatch{
			Title:           req.Title,
			Description:     req.Description,
			Status:          req.Status,
			Priority:        req.Priority,
			DueAt:           req.DueAt,
			AssignedAgentID: req.AssignedAgentID,
		})
		if err != nil {
			renderError(c, err)
			return
		}

		if updated.Status != previousStatus {
			msg := fmt.Sprintf("status %s -> %s", previousStatus, updated.Status)
			if err := s.RecordActivity(c.Request.Context(), &store.ActivityEvent{
				EventType: "task_status_changed",
				Message:   &msg,
				TaskID:    &updated.ID,
				AgentID:   updated.AssignedAgentID,
			}); err != nil {
				slog.Warn("could not record task activity", "task_id", updated.ID, "error", err)
			}
		}

		c.JSON(http.StatusOK, updated)
		notifyAgents(dispatcher, metrics, "task_updated", updated)
	}
}

// CreateTaskDependency adds an edge; self-edges and duplicate pairs come
// back from the store as conflicts.
func CreateTaskDependency(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		task := taskInOrg(c, s, member, c.Param("taskId"))
		if task == nil {
			return
		}

		var req datatypes.CreateDependencyRequest
		if !bindAndValidate(c, &req) {
			return
		}
		// The dependency target must live on the same board.
		target := taskInOrg(c, s, member, req.DependsOnTaskID)
		if target == nil {
			return
		}
		if *target.BoardID != *task.BoardID {
			c.JSON(http.StatusConflict, gin.H{"error": "tasks are on different boards"})
			return
		}

		dep := &store.TaskDependency{
			BoardID:         *task.BoardID,
			TaskID:          task.ID,
			DependsOnTaskID: req.DependsOnTaskID,
		}
		if err := s.CreateTaskDependency(c.Request.Context(), dep); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dep)
	}
}

func ListTaskDependencies(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		task := taskInOrg(c, s, member, c.Param("taskId"))
		if task == nil {
			return
		}
		deps, err := s.ListTaskDependencies(c.Request.Context(), *task.BoardID)
		if err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dependencies": deps})
	}
}

func DeleteTaskDependency(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		member := requireMember(c)
		if member == nil {
			return
		}
		task := taskInOrg(c, s, member, c.Param("taskId"))
		if task == nil {
			return
		}
		if err := s.DeleteTaskDependency(c.Request.Context(), c.Param("dependencyId")); err != nil {
			renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
