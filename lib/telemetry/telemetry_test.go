package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnProtocol(t *testing.T) {
	cases := []struct {
		conn     OtlpConnConfig
		protocol string
		endpoint string
	}{
		{conn: OtlpConnConfig{}, protocol: protocolNone, endpoint: ""},
		{
			conn:     OtlpConnConfig{HttpEndpoint: "http://localhost:4318"},
			protocol: protocolHttp,
			endpoint: "http://localhost:4318",
		},
		{
			conn: OtlpConnConfig{
				GrpcEndpoint: "http://localhost:4317",
				HttpEndpoint: "http://localhost:4318",
			},
			protocol: protocolGrpc,
			endpoint: "http://localhost:4317",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.protocol, test.conn.protocol())
		require.Equal(t, test.endpoint, test.conn.endpoint())
	}
}

func TestConfigDefaults(t *testing.T) {
	require.Equal(t, "AlwaysOnSampler", Config{}.sampler().Description())
	require.Equal(t, "AlwaysOnSampler", Config{SampleRatio: 1.5}.sampler().Description())
	require.Contains(t, Config{SampleRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")

	require.Equal(t, 30*time.Second, Config{}.metricInterval())
	require.Equal(t, 5*time.Second, Config{MetricIntervalSeconds: 5}.metricInterval())
}

func TestSetupLocal(t *testing.T) {
	tel, err := SetupLocal("test:lib/telemetry")
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)

	_, span := Tracer("test").Start(context.Background(), "span")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))
}
