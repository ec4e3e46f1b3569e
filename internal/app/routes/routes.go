package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/practicelog/internal/app/controllers"
	"github.com/yigit/practicelog/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	checkinController *controllers.CheckinController,
	uploadController *controllers.UploadController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
	}

	// --- Public read and submit routes ---
	members := v1.Group("/members")
	{
		members.GET("", checkinController.ListMembers)
		members.GET("/:id/submissions", checkinController.ListMemberSubmissions)
	}

	submissions := v1.Group("/submissions")
	{
		submissions.GET("/recent", checkinController.ListRecentSubmissions)
		submissions.POST("", checkinController.CreateSubmission)
	}

	v1.POST("/uploads", uploadController.Upload)
	v1.GET("/schemas", checkinController.DescribeSchemas)

	// --- Session routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.SessionAuth())
	{
		authenticated.GET("/me", authController.Me)
	}
}
