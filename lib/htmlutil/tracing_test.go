package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParsersRecordSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	ctx := context.Background()
	_, err := ParseTables(ctx, []byte(`<table><tr><td>a</td></tr></table>`))
	require.NoError(t, err)
	_, err = ParseOptions(ctx, []byte(`<select><option value="1">one</option></select>`))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "ParseTables", spans[0].Name())
	require.Equal(t, "ParseOptions", spans[1].Name())
	for _, span := range spans {
		require.Equal(t, "kuasap.lib.htmlutil", span.InstrumentationScope().Name)
	}
}
