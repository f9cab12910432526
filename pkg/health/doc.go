// Package health tracks provider health from observed call outcomes.
//
// The monitor maintains a trailing window of success/failure events per
// provider and derives a four-level classification (healthy, degraded,
// unhealthy, down) used by routing to filter candidates. It is fed by
// dispatcher outcomes rather than a separate probing loop, so the picture
// reflects real generation traffic.
package health
