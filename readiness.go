package waypoint

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// StatusHandler returns an [http.Handler] that reports the readiness of all
// schedulers registered with reg. It responds with 200 OK when every
// reporter is healthy, and 503 Service Unavailable otherwise. The response
// body is always a JSON-encoded [RegistryStatus].
func StatusHandler(reg *SchedulerRegistry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := reg.CheckReadiness()

		w.Header().Set("Content-Type", "application/json")
		if status.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(status)
	})
}
