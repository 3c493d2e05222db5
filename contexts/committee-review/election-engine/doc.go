// Package electionengine implements the committee election and voting
// workflow inside the committee-review context.
//
// The module owns election lifecycle orchestration (create/transition/close),
// vote slot provisioning and casting, the access/research-purpose election
// pairing, reviewer work queues, and notification production through
// outbox-backed workers. It keeps business rules in application/domain layers
// and isolates infrastructure concerns behind ports and adapters.
package electionengine
