package internal

import (
	"net/http"

	"memoriesbot/internal/controllers"
	"memoriesbot/internal/providers"
)

func InitRoutes(adminController *controllers.AdminController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/check", http.HandlerFunc(adminController.Check))
	routers.Post("/resync", http.HandlerFunc(adminController.Resync))
	routers.Get("/pins", http.HandlerFunc(adminController.ListPins))
	routers.Post("/channels", http.HandlerFunc(adminController.AddChannel))
	routers.Post("/role", http.HandlerFunc(adminController.SetRole))
	routers.Post("/reset", http.HandlerFunc(adminController.Reset))
	return routers
}
