package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Environment variables read by DefaultConfig. The OTEL_* names follow the
// OpenTelemetry SDK conventions.
const (
	EnvServiceName       = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID = "OTEL_SERVICE_INSTANCE_ID"
	EnvSDKDisabled       = "OTEL_SDK_DISABLED"
	EnvMetricsExporter   = "OTEL_METRICS_EXPORTER"
	EnvTracesExporter    = "OTEL_TRACES_EXPORTER"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvTracesSamplerArg  = "OTEL_TRACES_SAMPLER_ARG"
	EnvDetailedLabels    = "DRIVEFACADE_METRICS_DETAILED_LABELS"
	EnvAuditEnabled      = "DRIVEFACADE_AUDIT_ENABLED"
	EnvAuditIncludePII   = "DRIVEFACADE_AUDIT_INCLUDE_PII"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: drivefacade)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID identifies this process (default: hostname)
	ServiceInstanceID string

	// Enabled determines if instrumentation is active (default: true)
	Enabled bool

	// MetricsExporter is one of "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// TracingExporter is one of "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the collector address without scheme, e.g. "localhost:4318"
	OTLPEndpoint string

	// OTLPInsecure exports over plain HTTP. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio of sampled traces (default: 0.1)
	TraceSamplingRate float64

	// DetailedLabels adds the grantee email domain to share metrics.
	// Leave off in production to bound label cardinality.
	DetailedLabels bool

	// Audit configures the audit log of MCP tool invocations.
	Audit AuditConfig
}

// AuditConfig holds configuration for audit logging.
type AuditConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII logs grantee email addresses in clear instead of hashes.
	IncludePII bool
}

// DefaultConfig returns a Config populated from the process environment.
func DefaultConfig() Config {
	return configFromEnv(os.Getenv)
}

// configFromEnv builds a Config from getenv. Unparsable values fall back to
// the defaults.
func configFromEnv(getenv func(string) string) Config {
	env := envReader(getenv)
	return Config{
		ServiceName:       env.get(EnvServiceName, "drivefacade"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: env.get(EnvServiceInstanceID, ""),
		Enabled:           !env.getBool(EnvSDKDisabled, false),
		MetricsExporter:   exporterName(env.get(EnvMetricsExporter, ExporterPrometheus)),
		TracingExporter:   exporterName(env.get(EnvTracesExporter, ExporterNone)),
		OTLPEndpoint:      env.get(EnvOTLPEndpoint, ""),
		OTLPInsecure:      env.getBool(EnvOTLPInsecure, false),
		TraceSamplingRate: env.getFloat(EnvTracesSamplerArg, 0.1),
		DetailedLabels:    env.getBool(EnvDetailedLabels, false),
		Audit: AuditConfig{
			Enabled:    env.getBool(EnvAuditEnabled, true),
			IncludePII: env.getBool(EnvAuditIncludePII, false),
		},
	}
}

// exporterName maps the SDK's "console" spelling to ExporterStdout.
func exporterName(name string) string {
	if name == "console" {
		return ExporterStdout
	}
	return name
}

// Validate reports every invalid setting in c.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters))
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		errs = append(errs, fmt.Errorf("OTLP endpoint is required by the otlp exporter; set %s", EnvOTLPEndpoint))
	}

	return errors.Join(errs...)
}

type envReader func(string) string

func (e envReader) get(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e envReader) getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return b
}

func (e envReader) getFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return f
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// ServiceDrive is the only Google service this module talks to
	ServiceDrive = "drive"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// DefaultMetricInterval is the push interval of periodic metric readers.
const DefaultMetricInterval = 10 * time.Second
