/*
Package observability exposes the interaction engine to Prometheus.

Metrics are fed through domain.LifecycleHooks, so the engine stays unaware of the
collectors. Every Metrics owns its registry, which keeps tests and multiple engines
in one process from colliding on registration.
*/
package observability
