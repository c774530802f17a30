package main

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/basicauth"
	"github.com/paulmach/orb"
	"github.com/streetlens/panorama/api/config"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/handler"
	"github.com/streetlens/panorama/api/importer"
	"go.uber.org/zap"
)

var db *pgxpool.Pool

func main() {

	cfg := preflight()
	defer db.Close()
	app := panoramaApi(cfg, db)
	app.Listen(":" + cfg.Port)
}

func panoramaApi(cfg *config.Config, db database.DB) *iris.Application {

	app := iris.New()

	//destructive admin routes sit behind basic auth; everything else uses the
	//token middleware
	auth := basicauth.Default(map[string]string{
		cfg.AdminUser: cfg.AdminPassword,
	})
	tokenAuth := handler.RequireAuth(&handler.StaticAuthenticator{
		Principal: handler.Principal{UserId: 1, Name: "admin"},
	})

	//healthcheck endpoint
	app.Get("/healthz", handler.Ok)
	app.Get("/health", handler.Ok)

	images := database.NewImageController(db)
	locations := database.NewLocationController(db)
	panoramas := database.NewPanoramaController(db)
	timeMachine := database.NewTimeMachineController(db)
	tasks := database.NewTaskController(db)
	users := database.NewUserController(db)
	shops := database.NewShopController(db)

	ih := handler.ImageHandler{Images: images, MaxBytes: cfg.ImportMaxBytes}
	lh := handler.LocationHandler{Locations: locations, Panoramas: panoramas, Images: images, TimeMachine: timeMachine}
	ph := handler.PanoramaHandler{Panoramas: panoramas, Images: images}
	th := handler.TaskHandler{Tasks: tasks, Users: users}
	uh := handler.UserHandler{Users: users}
	gh := handler.GovernmentHandler{Users: users}
	sh := handler.ShopHandler{Shops: shops}

	api := app.Party("/api")

	userEndpoint := api.Party("/users")
	{
		userEndpoint.Post("/login", uh.Login)
		userEndpoint.Post("/logout", tokenAuth, uh.Logout)
	}

	panoramaEndpoint := api.Party("/panorama")
	{
		panoramaEndpoint.Get("/locations", lh.List)
		panoramaEndpoint.Post("/locations", tokenAuth, lh.Create)
		panoramaEndpoint.Get("/locations/{location_id:int64}", lh.Get)
		panoramaEndpoint.Put("/locations/{location_id:int64}", tokenAuth, lh.Update)
		panoramaEndpoint.Delete("/locations/{location_id:int64}", tokenAuth, lh.Delete)
		panoramaEndpoint.Get("/locations/{location_id:int64}/delete-check", lh.DeleteCheck)
		panoramaEndpoint.Post("/locations/{location_id:int64}/attach-panorama", tokenAuth, lh.Attach)
		panoramaEndpoint.Post("/locations/{location_id:int64}/detach-panorama", tokenAuth, lh.Detach)
		panoramaEndpoint.Get("/available", ph.Available)
		panoramaEndpoint.Get("/panoramas", ph.List)
		panoramaEndpoint.Get("/timemachine/{location_id:int64}", lh.TimeMachineEntries)
		panoramaEndpoint.Get("/{panorama_id:int64}/previews", ph.GetPreviews)
		panoramaEndpoint.Post("/{panorama_id:int64}/add-preview", tokenAuth, ph.AddPreviews)
		panoramaEndpoint.Delete("/{panorama_id:int64}/remove-preview", tokenAuth, ph.RemovePreviews)
		panoramaEndpoint.Put("/{panorama_id:int64}/reorder-previews", tokenAuth, ph.ReorderPreviews)
	}

	managerEndpoint := api.Party("/manager")
	{
		managerEndpoint.Post("/data/{data_id:int64}/review", tokenAuth, ph.Review)
		managerEndpoint.Delete("/data/{data_id:int64}", auth, ph.Delete)
		managerEndpoint.Get("/users/list", tokenAuth, uh.List)
		managerEndpoint.Put("/users/{user_id:int64}", tokenAuth, uh.Update)
	}

	imageEndpoint := api.Party("/images")
	{
		imageEndpoint.Post("/upload", tokenAuth, ih.Upload)
		imageEndpoint.Get("/{image_id:int64}", ih.GetImage)
		imageEndpoint.Get("/{image_id:int64}/base64", ih.GetImageBase64)
		imageEndpoint.Get("/{image_id:int64}/info", ih.GetImageInfo)
	}

	shopEndpoint := api.Party("/shop")
	{
		shopEndpoint.Get("/list", tokenAuth, sh.List)
		shopEndpoint.Post("/", tokenAuth, sh.Create)
		shopEndpoint.Get("/{shop_id:int64}", tokenAuth, sh.Get)
		shopEndpoint.Put("/{shop_id:int64}", tokenAuth, sh.Update)
		shopEndpoint.Put("/{shop_id:int64}/status", tokenAuth, sh.SetStatus)
		shopEndpoint.Delete("/{shop_id:int64}", auth, sh.Delete)
	}

	governmentEndpoint := api.Party("/government")
	{
		governmentEndpoint.Post("/login", gh.Login)
		governmentEndpoint.Get("/users", tokenAuth, gh.Officers)
		governmentEndpoint.Post("/tasks", tokenAuth, th.Create)
		governmentEndpoint.Get("/tasks", tokenAuth, th.List)
		governmentEndpoint.Get("/tasks/map", tokenAuth, th.Map)
		governmentEndpoint.Get("/tasks/statistics", tokenAuth, th.Statistics)
		governmentEndpoint.Get("/tasks/{task_id:int64}", tokenAuth, th.Get)
		governmentEndpoint.Put("/tasks/{task_id:int64}", tokenAuth, th.Update)
		governmentEndpoint.Post("/tasks/{task_id:int64}/comments", tokenAuth, th.AddComment)
	}

	return app
}

//preflight sets up all the config and sanity checks
func preflight() *config.Config {

	cfg := config.Load()

	pool, err := cfg.Connect(context.Background())
	if err != nil {
		zap.L().Fatal("failed to connect to database")
	}
	db = pool

	if cfg.DbInit {
		if err := database.SetupSchema(db); err != nil {
			zap.L().Fatal("unable to setup database")
		}
	}

	skipped, err := database.Seed(context.Background(), db)
	if err != nil {
		zap.L().Fatal("unable to seed database", zap.Error(err))
	}
	if !skipped {
		runImport(context.Background(), cfg, db)
	}

	zap.L().Info("preflight complete")
	return cfg
}

//runImport populates panoramas from the listing directory tree on first boot.
func runImport(ctx context.Context, cfg *config.Config, db database.DB) {

	imp := importer.New(database.NewImportStore(db), importer.Options{
		Root:            cfg.ImportDir,
		MaxFileBytes:    cfg.ImportMaxBytes,
		CoordTolerance:  cfg.CoordTolerance,
		DefaultPosition: orb.Point{cfg.DefaultLongitude, cfg.DefaultLatitude},
		Jitter:          cfg.CoordJitter,
		CreatedBy:       1, //seeded admin
	})
	if _, err := imp.Run(ctx); err != nil {
		zap.S().Errorf("import failed: %s", err.Error())
	}
}
