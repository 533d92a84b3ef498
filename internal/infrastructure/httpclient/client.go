package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const headerInternalSecret = "X-Internal-Secret"

// Config carries what every service client needs: where the collaborator
// lives, the shared secret that marks the call as service-to-service, and
// the single-attempt timeout. There are no retries; a failed call surfaces
// to the orchestrator.
type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// instruments records per-call metrics for outbound service requests.
type instruments struct {
	requests observability.Counter
	duration observability.Histogram
}

func newInstruments(tel observability.Telemetry) instruments {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return instruments{
		requests: tel.Counter(observability.MetricExternalRequests),
		duration: tel.Histogram(observability.MetricExternalDuration),
	}
}

func (i instruments) observe(target, operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	i.requests.Add(1,
		observability.L("target", target),
		observability.L("operation", operation),
		observability.L("outcome", outcome),
	)
	i.duration.Observe(time.Since(start).Seconds(),
		observability.L("target", target),
		observability.L("operation", operation),
	)
}
