package model

// Outcome is the typed result of a tolerant (idempotent) operation.
type Outcome string

const (
	OutcomeCreated       Outcome = "Created"
	OutcomeUpdated       Outcome = "Updated"
	OutcomeUnchanged     Outcome = "Unchanged"
	OutcomeDeleted       Outcome = "Deleted"
	OutcomeAlreadyAbsent Outcome = "AlreadyAbsent"
	OutcomeIgnored       Outcome = "Ignored"
)

// Readiness is the result of a bounded wait for convergence.
type Readiness string

const (
	Ready    Readiness = "Ready"
	TimedOut Readiness = "TimedOut"
)
