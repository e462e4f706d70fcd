// Package menuapi fetches raw daily menu payloads from the vendor HTTP API.
//
// A request is a GET against the configured base URL with the date and
// location as query parameters and the subscription key in a header:
//
//	c, err := menuapi.New(menuapi.Config{
//	    BaseURL:    "https://bite-external-api.azure-api.net/extern/bite-application/location",
//	    APIKey:     os.Getenv("MENU_API_KEY"),
//	    LocationID: "75204001",
//	}, menuapi.WithLogger(log))
//	payload, err := c.Fetch(ctx, c.Request("2024-03-07"))
//
// Brotli and gzip encoded bodies are decoded transparently.
//
// # Retries
//
// Network failures and 5xx responses are retried with exponential backoff.
// The first delay is Policy.BaseDelay and each following delay doubles. The
// loop is bounded by total elapsed time: when the time already spent plus the
// next delay would exceed Policy.MaxElapsed, Fetch gives up with a timeout.
// A 4xx response, an undecodable body or a payload without menus fails at
// once.
//
// Waits go through a [Clock], so tests can run the full retry schedule
// without sleeping:
//
//	c, _ := menuapi.New(cfg, menuapi.WithClock(fake), menuapi.WithPolicy(menuapi.Policy{
//	    BaseDelay:  time.Second,
//	    MaxElapsed: time.Minute,
//	}))
//
// # Errors
//
// Every failure is a *[FetchError] carrying its [Kind], the last HTTP status and
// the number of attempts. Each kind matches one sentinel:
//
//   - [ErrClientError]: 4xx, malformed body or no menus; never retried
//   - [ErrTransient]: network failure or 5xx; only returned when a custom
//     Policy.IsRetryable declines to retry it
//   - [ErrTimeout]: retry budget exhausted or context cancelled
//
// [ErrNoMenus] is wrapped by a client error when the response lists no menus.
package menuapi
