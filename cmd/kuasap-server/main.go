package main

import (
	"flag"
	"log/slog"

	"kuasap-backend/lib/configutil"
	"kuasap-backend/lib/querycache"
	"kuasap-backend/lib/serviceutil"
	"kuasap-backend/lib/sessions"
	"kuasap-backend/services/ap"
	"kuasap-backend/services/api"
	"kuasap-backend/services/news"
	newsdb "kuasap-backend/services/news/db"

	"connectrpc.com/connect"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfigWithDefaults(*configPath, defaultConfig)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	newsDB, err := cfg.News.OpenDB(newsdb.Schema)
	if err != nil {
		serviceutil.Fatal("open news database", err)
	}
	defer newsDB.Close()

	apService := ap.NewService(
		sessions.NewRegistry(),
		querycache.New[[]byte](cfg.cacheOptions()),
		cfg.apOptions(),
	)
	err = apService.Start(ctx)
	if err != nil {
		serviceutil.Fatal("start ap service", err)
	}

	newsService := news.NewService(newsDB)
	if !cfg.SkipNewsSeed {
		added, err := newsService.Seed(ctx, news.DefaultNews)
		if err != nil {
			serviceutil.Fatal("seed news", err)
		}
		if added > 0 {
			slog.InfoContext(ctx, "seeded empty news table", "count", added)
		}
	}

	server := api.NewServer(apService, newsService)
	handler := server.Handler(connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()))

	err = serviceutil.StartHttpServer(ctx, cfg.Port, handler)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
