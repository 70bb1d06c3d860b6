// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/MissionControl/pkg/extensions"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/handlers"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/jobs"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/middleware"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"
)

func SetupRoutes(router *gin.Engine, s *store.Store, provider extensions.IdentityProvider,
	dispatcher *jobs.Dispatcher, metrics *observability.Metrics) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RequestID(), middleware.Metrics(metrics))

	// User-facing routes: bearer-token identity, membership resolved from
	// the caller's active organization.
	user := v1.Group("", middleware.UserAuth(provider, s))
	{
		user.POST("/organizations", handlers.CreateOrganization(s))
		org := user.Group("/organization")
		{
			org.GET("", handlers.GetOrganization(s))
			org.DELETE("", handlers.DeleteOrganization(s, metrics))
			org.GET("/members", handlers.ListMembers(s))
			org.POST("/invites", handlers.CreateInvite(s))
			org.GET("/invites", handlers.ListInvites(s))
		}

		gateways := user.Group("/gateways")
		{
			gateways.POST("", handlers.CreateGateway(s))
			gateways.GET("", handlers.ListGateways(s))
			gateways.GET("/:gatewayId", handlers.GetGateway(s))
			gateways.PATCH("/:gatewayId", handlers.UpdateGateway(s))
			gateways.DELETE("/:gatewayId", handlers.DeleteGateway(s))
		}

		groups := user.Group("/board-groups")
		{
			groups.POST("", handlers.CreateBoardGroup(s))
			groups.GET("", handlers.ListBoardGroups(s))
			groups.GET("/:groupId", handlers.GetBoardGroup(s))
			groups.DELETE("/:groupId", handlers.DeleteBoardGroup(s, metrics))
			groups.GET("/:groupId/memory", handlers.ListBoardGroupMemory(s))
			groups.POST("/:groupId/memory", handlers.CreateBoardGroupMemory(s))
		}

		boards := user.Group("/boards")
		{
			boards.POST("", handlers.CreateBoard(s))
			boards.GET("", handlers.ListBoards(s))
			boards.GET("/:boardId", handlers.GetBoard(s))
			boards.PATCH("/:boardId", handlers.UpdateBoard(s))
			boards.DELETE("/:boardId", handlers.DeleteBoard(s, metrics))
			boards.POST("/:boardId/lead-agent", handlers.EnsureLeadAgent(s, metrics))
			boards.GET("/:boardId/agents", handlers.ListBoardAgents(s))
			boards.POST("/:boardId/tasks", handlers.CreateTask(s, dispatcher, metrics))
			boards.GET("/:boardId/tasks", handlers.ListTasks(s))
			boards.GET("/:boardId/activity", handlers.ListBoardActivity(s))
			boards.GET("/:boardId/memory", handlers.ListBoardMemory(s))
			boards.POST("/:boardId/memory", handlers.CreateBoardMemory(s))

			onboarding := boards.Group("/:boardId/onboarding")
			{
				onboarding.GET("", handlers.GetOnboarding(s))
				onboarding.POST("/start", handlers.StartOnboarding(s))
				onboarding.POST("/answer", handlers.AnswerOnboarding(s))
				onboarding.POST("/confirm", handlers.ConfirmOnboarding(s, metrics))
			}
		}

		user.GET("/agents/:agentId", handlers.GetAgent(s))

		tasks := user.Group("/tasks")
		{
			tasks.GET("/:taskId", handlers.GetTask(s))
			tasks.PATCH("/:taskId", handlers.UpdateTask(s, dispatcher, metrics))
			tasks.GET("/:taskId/dependencies", handlers.ListTaskDependencies(s))
			tasks.POST("/:taskId/dependencies", handlers.CreateTaskDependency(s))
			tasks.DELETE("/:taskId/dependencies/:dependencyId", handlers.DeleteTaskDependency(s))
		}
	}

	// Agent-facing routes: authenticated with X-Agent-Id / X-Agent-Token.
	agent := v1.Group("/agent", middleware.AgentAuth(s))
	{
		agent.POST("/agents/:agentId/heartbeat", handlers.Heartbeat(s, metrics))
		agent.POST("/boards/:boardId/onboarding/complete", handlers.CompleteOnboarding(s))
	}
}
