// Package directedinputs resolves method parameters and configuration values
// from directed input sources: explicit call arguments, process environment
// variables, a single JSON document read from stdin, or in-memory mappings
// supplied by the caller. Values are decoded (base64, JSON, YAML) and coerced
// to their declared types before they reach the target method, so entry-point
// code gets typed parameters without lookup boilerplate.
//
// Example:
//
//	binder := directedinputs.NewBinder(
//	    directedinputs.WithEnvPrefix("SERVICE_", true),
//	)
//	svc := binder.Instance()
//	getPort, err := svc.Method(func(port int) int { return port },
//	    directedinputs.Param{Name: "port", Default: 8080},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := getPort.Call() // port resolved from SERVICE_PORT
//
// Precedence per parameter: an explicit call argument always wins; otherwise
// the input context is consulted, where construction-time values override
// stdin and stdin overrides the environment; otherwise the configured default
// applies.
package directedinputs
