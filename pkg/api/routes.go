package api

import "github.com/labstack/echo/v4"

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.HandleHealth)

	g := e.Group("/api")
	g.POST("/evaluate", h.HandleEvaluate)
	g.GET("/tree", h.HandleTree)
	g.GET("/query/:label", h.HandleQuery)
	g.POST("/partlist", h.HandlePartList)
	g.POST("/find", h.HandleFind)
	g.GET("/icons/:ptype", h.HandleIcon)

	docs := g.Group("/documents")
	docs.GET("", h.HandleListDocuments)
	docs.POST("/:name", h.HandleSaveDocument)
	docs.GET("/:name", h.HandleOpenDocument)
	docs.DELETE("/:name", h.HandleDeleteDocument)
}
