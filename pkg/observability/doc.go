/*
Package observability turns interpreter lifecycle hooks into metrics and logs.

	m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LoggingHooks(logger))
	interp := runtime.NewInterpreter(c, runtime.WithLifecycleHooks(hooks))
*/
package observability
