// Package services relays errors, results, social posts, test pings and trial registrations to webhook endpoints.
//
// # Endpoints
//
// Two kinds of endpoint receive payloads:
//   - the admin error endpoint, fixed by configuration ([shared.WebhookConfig.ErrorURL])
//   - the per-user endpoint, read from the user's profile through a [ProfileStore] on every call
//
// An empty endpoint disables delivery. It is never an error.
//
// # Delivery
//
// Payloads are JSON POSTs made by a [Poster]. [HTTPPoster] reports a [Delivery]:
//   - [NotIssued] : the request could not be sent
//   - [Issued] : the exchange completed, the response was not inspected
//   - [Confirmed] : the endpoint answered 2xx (only with confirm_delivery enabled)
//
// Media is always base64 text on the wire.
//
// # Fire-and-forget
//
// [WebhookService.ReportError] and [WebhookService.ReportResult] return before any network I/O.
// Their work runs on a bounded [Queue] whose workers share a rate limiter. A full queue drops the
// job with a warning. Failures are logged and published on the event bus, never returned.
//
// [WebhookService.ReportSocialPost], [WebhookService.SendTestPing] and
// [WebhookService.ReportRegistration] block and return a [Result] the caller shows to the user.
//
// # Gating
//
// Every per-user operation requires a session user and rejects trial accounts.
// Fire-and-forget calls skip silently; explicit-result calls return a failure [Result].
package services
