package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"kuasap-backend/lib/restyutil"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/serviceutil"
	"kuasap-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	t, err := telemetry.SetupFromEnv(ctx, "kuasap-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "telemetry.json5 not found, traces and metrics will not be exported")
		t, err = telemetry.SetupLocal("kuasap-server")
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx, time.Minute)

	if !verbose {
		return
	}

	out, err := restyutil.NewFilesystemOutput(".dev/resty/kuasap")
	if err != nil {
		slog.WarnContext(ctx, "failed to create resty output directory", "err", err)
		return
	}
	kuasap.SetRestyInstrumentOutput(out)
}
