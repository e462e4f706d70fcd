// Package health serves liveness and readiness probes for serve mode.
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	    "jobs":     job.Healthcheck(manager),
//	}, health.WithTimeout(3*time.Second), health.WithLogger(log)))
//
// Checks run concurrently under one timeout. Responses are plain text ("OK", or
// "Service Unavailable" followed by one "name: error" line per failing check)
// unless the client asks for JSON with an Accept: application/json header or
// ?format=json:
//
//	{"status":"unhealthy","checks":{"redis":{"status":"unhealthy","error":"connection refused"}}}
package health
