package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/server/api"
	"github.com/looplj/cellhub/internal/server/biz"
	"github.com/looplj/cellhub/internal/server/middleware"
)

type Handlers struct {
	fx.In

	System  *api.SystemHandlers
	Auth    *api.AuthHandlers
	CellCtl *api.CellCtlHandlers
	Acl     *api.AclHandlers
	Prop    *api.PropHandlers
	Message *api.MessageHandlers
}

type Services struct {
	fx.In

	AuthService *biz.AuthService
	CellService *biz.CellService
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group("", middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health and version - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
		publicGroup.GET("/version", handlers.System.Version)
		// Unit administrator sign-in - DO NOT AUTH
		publicGroup.POST("/__token", handlers.Auth.AdminToken)
	}

	// Unit-level cell management requires a unit administrator token.
	unitGroup := server.Group("/__ctl",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithBearerAuth(services.AuthService),
		middleware.RequireUnitAdmin(),
	)
	{
		unitGroup.POST("/Cell", handlers.CellCtl.CreateCell)
		unitGroup.GET("/Cell", handlers.CellCtl.ListCells)
		unitGroup.DELETE("/Cell/:cell", handlers.CellCtl.DeleteCell)
	}

	cellGroup := server.Group("/:cell",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithBearerAuth(services.AuthService),
		middleware.WithCellResolution(services.CellService),
	)
	{
		// Account sign-in - DO NOT AUTH
		cellGroup.POST("/__token", handlers.Auth.CellToken)

		// Inbound message port. Admission is payload validation, the
		// sending unit does not authenticate.
		cellGroup.POST("/__message/port", handlers.Message.Receive)

		cellGroup.POST("/__message/port/:id", handlers.Message.Command)
		cellGroup.POST("/__message/send", handlers.Message.Send)
		cellGroup.GET("/__message/received", handlers.Message.ListReceived)
		cellGroup.GET("/__message/received/:id", handlers.Message.GetReceived)
		cellGroup.GET("/__message/sent", handlers.Message.ListSent)
		cellGroup.GET("/__message/sent/:id", handlers.Message.GetSent)

		cellGroup.GET("/__prop", handlers.Prop.GetCellProp)
		cellGroup.PUT("/__acl", handlers.Acl.SetCellAcl)
		cellGroup.GET("/__acl", handlers.Acl.GetCellAcl)

		cellGroup.GET("/:box/__prop", handlers.Prop.GetBoxProp)
		cellGroup.PUT("/:box/__acl", handlers.Acl.SetBoxAcl)
		cellGroup.GET("/:box/__acl", handlers.Acl.GetBoxAcl)

		ctlGroup := cellGroup.Group("/__ctl")
		{
			ctlGroup.POST("/Box", handlers.CellCtl.CreateBox)
			ctlGroup.GET("/Box", handlers.CellCtl.ListBoxes)
			ctlGroup.DELETE("/Box/:box", handlers.CellCtl.DeleteBox)

			ctlGroup.POST("/Role", handlers.CellCtl.CreateRole)
			ctlGroup.GET("/Role", handlers.CellCtl.ListRoles)
			ctlGroup.DELETE("/Role/:box/:name", handlers.CellCtl.DeleteRole)
			ctlGroup.GET("/Role/:box/:name/$links/ExtCell", handlers.CellCtl.ListRoleExtCellLinks)

			ctlGroup.POST("/Relation", handlers.CellCtl.CreateRelation)
			ctlGroup.GET("/Relation", handlers.CellCtl.ListRelations)
			ctlGroup.DELETE("/Relation/:box/:name", handlers.CellCtl.DeleteRelation)
			ctlGroup.GET("/Relation/:box/:name/$links/ExtCell", handlers.CellCtl.ListRelationExtCellLinks)
			ctlGroup.POST("/Relation/:box/:name/$links/ExtCell", handlers.CellCtl.LinkRelationExtCell)
			ctlGroup.DELETE("/Relation/:box/:name/$links/ExtCell", handlers.CellCtl.UnlinkRelationExtCell)
			ctlGroup.GET("/Relation/:box/:name/$links/Role", handlers.CellCtl.ListRelationRoleLinks)
			ctlGroup.POST("/Relation/:box/:name/$links/Role", handlers.CellCtl.LinkRelationRole)
			ctlGroup.DELETE("/Relation/:box/:name/$links/Role", handlers.CellCtl.UnlinkRelationRole)

			ctlGroup.POST("/ExtCell", handlers.CellCtl.CreateExtCell)
			ctlGroup.GET("/ExtCell", handlers.CellCtl.ListExtCells)
			ctlGroup.DELETE("/ExtCell", handlers.CellCtl.DeleteExtCell)

			ctlGroup.POST("/Account", handlers.CellCtl.CreateAccount)
			ctlGroup.GET("/Account", handlers.CellCtl.ListAccounts)
			ctlGroup.DELETE("/Account/:name", handlers.CellCtl.DeleteAccount)
			ctlGroup.POST("/Account/:name/$links/Role", handlers.CellCtl.LinkAccountRole)
			ctlGroup.DELETE("/Account/:name/$links/Role", handlers.CellCtl.UnlinkAccountRole)
		}
	}
}
