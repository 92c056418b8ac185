package main

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assistant-api/internal/assistant"
	"github.com/yukikurage/task-assistant-api/internal/config"
	"github.com/yukikurage/task-assistant-api/internal/constants"
	"github.com/yukikurage/task-assistant-api/internal/handlers"
	"github.com/yukikurage/task-assistant-api/internal/llm"
	"github.com/yukikurage/task-assistant-api/internal/middleware"
	"github.com/yukikurage/task-assistant-api/internal/repository"
	"github.com/yukikurage/task-assistant-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionMaxAge = 86400 * 7

// newSessionStore keeps sessions in redis when a redis host is configured
// and in signed cookies otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.UseRedisSessions() {
		rs, err := redisStore.NewStore(
			10,    // pool size
			"tcp", // network type
			cfg.RedisHost+":"+cfg.RedisPort,
			"", // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func newRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*gin.Engine, error) {
	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	client := llm.NewClient(llm.FromAppConfig(cfg), nil, llm.NewZapObserver(log))
	assistantService := assistant.NewService(taskRepo, client, log)

	authHandler := handlers.NewAuthHandler(services.NewAuthService(userRepo))
	projectHandler := handlers.NewProjectHandler(services.NewProjectService(projectRepo))
	taskHandler := handlers.NewTaskHandler(services.NewTaskService(taskRepo, projectRepo))
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Assistant API is running",
			"llm":     cfg.LLMConfigured(),
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.POST("/join", projectHandler.JoinProject)
		}

		// Routes scoped to one project the user belongs to
		project := projects.Group("/:id")
		project.Use(middleware.RequireProjectAccess(projectRepo))
		{
			project.GET("", projectHandler.GetProject)
			project.PATCH("", middleware.RequireProjectOwner(), projectHandler.UpdateProject)
			project.DELETE("", middleware.RequireProjectOwner(), projectHandler.DeleteProject)
			project.POST("/regenerate-code", middleware.RequireProjectOwner(), projectHandler.RegenerateInviteCode)
			project.GET("/members", projectHandler.ListMembers)
			project.DELETE("/members/:user_id", middleware.RequireProjectOwner(), projectHandler.RemoveMember)

			project.GET("/tasks", taskHandler.ListTasks)
			project.POST("/tasks", taskHandler.CreateTask)
			project.GET("/tasks/:task_id", taskHandler.GetTask)
			project.PATCH("/tasks/:task_id", taskHandler.UpdateTask)
			project.DELETE("/tasks/:task_id", taskHandler.DeleteTask)

			project.GET("/snapshot", assistantHandler.Snapshot)
			project.POST("/assistant/compile", assistantHandler.Compile)
			project.POST("/assistant/execute", assistantHandler.Execute)
		}
	}

	return r, nil
}
