package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/erisanolasheni/risevest/internal/handlers"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
)

type Deps struct {
	Gate           *authmw.Gate
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	PostHandler    *handlers.PostHandler
	CommentHandler *handlers.CommentHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	posts := v1.Group("/posts")
	posts.GET("", d.PostHandler.GetPosts)
	posts.GET("/:id", d.PostHandler.GetPost)
	posts.GET("/:id/comments", d.CommentHandler.GetComments)
	posts.POST("", d.PostHandler.CreatePost, d.Gate.RequireLogin)
	posts.PUT("/:id", d.PostHandler.UpdatePost, d.Gate.RequireLogin)
	posts.DELETE("/:id", d.PostHandler.DeletePost, d.Gate.RequireLogin)
	posts.POST("/:id/comments", d.CommentHandler.CreateComment, d.Gate.RequireLogin)

	comments := v1.Group("/comments", d.Gate.RequireLogin)
	comments.PUT("/:id", d.CommentHandler.UpdateComment)
	comments.DELETE("/:id", d.CommentHandler.DeleteComment)

	users := v1.Group("/users", d.Gate.RequireLogin)
	users.GET("", d.UserHandler.GetUsers)
	users.GET("/top", d.UserHandler.GetTopUsers)
	users.GET("/:id", d.UserHandler.GetUser)
	users.GET("/:id/posts", d.UserHandler.GetUserPosts)
	users.PUT("/:id", d.UserHandler.UpdateUser)
	users.DELETE("/:id", d.UserHandler.DeleteUser)

	v1.GET("/search", d.SearchHandler.Search)
}
