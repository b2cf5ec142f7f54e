// Package audit persists the decision trail: one row per evaluated
// scan, kept independent of the configuration it was decided under so
// history survives personnel and door churn.
package audit
