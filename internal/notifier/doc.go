// Package notifier delivers posts to the channel and forwards short copies to
// users subscribed to the teams and players a post mentions.
//
// # Delivery
//
// Every outbound call passes a shared token-bucket limiter and a retry loop.
// Errors are classified by transport.Classify: transient ones (flood wait,
// timeouts, 5xx) are retried with jittered exponential backoff, permanent ones
// (blocked, chat not found, bad request) are dropped at once.
//
// # Fan-out
//
// After a successful channel send the plain text is scanned for catalog
// entity names. Each distinct subscriber of any matched entity gets exactly one
// copy, sent from a bounded errgroup. Subscriber failures are counted and
// logged; they never fail the delivery.
package notifier
