// Package notify delivers job lifecycle events to interested consumers.
//
// The queue and dispatcher publish exactly one event per terminal
// transition (COMPLETED, FAILED, CANCELLED, EXPIRED) and at most one per
// intermediate transition. Delivery is best-effort: a slow subscriber
// never blocks the publisher, its connection is dropped instead.
package notify
