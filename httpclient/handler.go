package httpclient

// StatusHandler receives per-attempt outcomes of the client
type StatusHandler interface {
	// OnRequest handles an attempt with its status result:
	// "success", "error", "rate_limited" or "cancelled"
	OnRequest(status string)
	// OnRetry handles retry events
	OnRetry()
}

type noopStatusHandler struct{}

func (noopStatusHandler) OnRequest(status string) {}
func (noopStatusHandler) OnRetry()                {}
