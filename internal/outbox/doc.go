// Package outbox implements the transactional outbox for abstract review
// notifications.
//
// # Overview
//
// Workflow operations enqueue notification intents into the
// notification_outbox table in the same database transaction as the state
// change they describe. A separate relay worker polls the table and publishes
// pending rows to Kafka, so notification delivery is decoupled from workflow
// correctness: a slow or unavailable broker never fails a review operation,
// and a rolled-back operation never leaks a notification.
//
// # Components
//
//   - PgRepository: Persists notification intents and tracks delivery state
//   - Relay: Polls pending intents and publishes them to Kafka, rate limited
//
// # Notification Kinds
//
// The service publishes notifications for key lifecycle moments:
//
//   - reviewer.assigned: A reviewer was assigned to an abstract
//   - abstract.approved: An abstract reached the approved status
//   - abstract.rejected: An abstract reached the rejected status
//   - revision.requested: An admin asked the author for a revision
//   - revision.resubmitted: The author resubmitted a revised abstract
//
// # Delivery Semantics
//
// Delivery is at-least-once. A publish failure increments the row's attempt
// counter and leaves it pending for the next poll; a row that exhausts its
// maximum attempts is marked failed and skipped thereafter. Consumers must
// deduplicate on the notification ID.
package outbox
