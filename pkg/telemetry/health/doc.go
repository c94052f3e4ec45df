// Package health serves liveness, readiness and version endpoints.
//
// Readiness runs the registered checks, typically a ping of the relational
// source and a check that an export catalog is loaded:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("source", src.Ping)
//	health.Register(mux, checker, version, commit, buildTime)
package health
