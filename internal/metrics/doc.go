// Package metrics declares the Prometheus collectors for edbx.
//
// Collectors are registered with the default registry through promauto and exposed by
// the API server on /metrics. Helpers such as [ObserveOperation] keep label values
// consistent across the services that record them.
package metrics
