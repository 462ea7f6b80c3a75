// Package triage holds the rule-based priority evaluator: age-bracket
// resolution, vital-sign thresholds with measurement margins, and the
// answer-driven override. Everything here is pure and safe for concurrent use.
package triage
