// Package hipcall provides a client for the Hipcall telephony and CRM API (v3).
//
// The package exposes two clients with the same operations and models:
//
//   - Client: blocking calls, one shared http.Client
//   - AsyncClient: every call returns a Future; the HTTP session is opened
//     with Open and released with Close (or scoped with WithSession)
//
// Both share one core that builds URLs and headers and funnels every response
// through HandleResponse.
//
// # Usage
//
//	client, err := hipcall.NewClient("your-api-key",
//		hipcall.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	calls, err := client.GetCalls(ctx, hipcall.WithLimit(5))
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Asynchronous use:
//
//	err := hipcall.WithSession(ctx, "your-api-key", func(ctx context.Context, c *hipcall.AsyncClient) error {
//		calls := c.GetCalls(ctx)
//		tasks := c.GetTasks(ctx, hipcall.WithQuery("follow up"))
//		if _, err := calls.Wait(ctx); err != nil {
//			return err
//		}
//		_, err := tasks.Wait(ctx)
//		return err
//	})
//
// # Error Handling
//
// Non-success responses are returned as *APIError. Its kind can be checked
// with errors.Is against ErrBadRequest, ErrUnauthorized, ErrNotFound,
// ErrUnprocessableEntity or ErrAPI:
//
//	if errors.Is(err, hipcall.ErrNotFound) {
//		// Handle missing task
//	}
//
// Bodies that are not JSON, or that do not match the expected model, are
// returned as *DecodeError. A missing API key fails construction with
// ErrInvalidConfig.
//
// # Metrics
//
// WithMetrics attaches a Prometheus MetricsCollector that counts requests,
// errors and latency per operation:
//
//	registry := prometheus.NewRegistry()
//	client, err := hipcall.NewClient(key,
//		hipcall.WithMetrics(hipcall.NewMetricsCollectorWithRegistry(registry)),
//	)
//
// The hipcalltest package provides an in-memory server for tests.
package hipcall
