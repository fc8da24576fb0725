// Package resilience provides the fault-tolerance policies applied to
// model backends and other remote units:
//   - Retry: retries retryable failures with exponential backoff and jitter
//   - CircuitBreaker: fails fast while a backend keeps failing
//   - RateLimiter: token bucket limiting calls per second
//
// The policies compose; node.WithResilience applies them in the order
// rate limiter, circuit breaker, retry:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 5, Burst: 10})
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("openai"))
//
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (Response, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return Response{}, err
//	    }
//	    var resp Response
//	    err := cb.Execute(func() (err error) { resp, err = model.Process(ctx, req); return err })
//	    return resp, err
//	})
package resilience
