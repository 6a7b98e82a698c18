// Package script runs YAML scenarios against header and dependency set
// proxies and records a deterministic trace.
//
// A scenario loads one header, from a fixture file or inline tags, then
// drives proxies step by step:
//
//	name: bash-requires
//	description: walk the requires of bash
//	header: ../headers/bash.yaml
//	steps:
//	  - {op: deps, tag: REQUIRENAME, as: req}
//	  - {op: next, on: req, expect: true}
//	  - {op: get, on: req, name: DNEVR, expect: "R glibc >= 2.34"}
//
// Steps run against the proxy named by "on", the header when omitted.
// A step with "expect" compares its result, one with "absent: true"
// expects no result and one with "error" expects a failure containing
// that text. Mismatches fail the scenario without stopping it, so the
// trace always covers every step.
//
// Traces are compared against golden files with RunWithGolden. To
// regenerate them run:
//
//	go test ./internal/script -update
package script
