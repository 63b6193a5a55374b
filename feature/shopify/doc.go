// Package shopify is the storefront side of a catalog sync.
//
// Client implements reconcile.Destination against the Admin GraphQL API.
// Every request goes through a transport.Transport, so throttling and
// transient failures are retried with the run's rate limiter. Both kinds of
// GraphQL failure are surfaced as typed errors:
//
//   - GraphQLError for the top-level "errors" array. A THROTTLED code marks
//     it transient and feeds back into the limiter.
//   - UserErrors for "userErrors" or "mediaUserErrors" of a mutation. These
//     are never retried.
//
// Inventory is written to the first active location, resolved once per
// client.
package shopify
