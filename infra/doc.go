// Package infra holds the adapters that touch the outside world: demand
// CSV sources, PNG plots, metrics backends, Sentry and the job log. They
// implement interfaces declared in the core packages.
package infra
