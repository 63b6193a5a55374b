// Package sentos is the inventory side of a catalog sync.
//
// Client implements reconcile.Source against the Sentos REST API. Products
// are read page by page with HTTP Basic auth and parsed into catalog
// entities at the boundary; loosely typed fields (numeric ids, comma
// decimal prices, size given as an object or a string) are normalized here.
//
// The REST API does not expose the image order shown in the Sentos panel.
// OrderedImageURLs reads it from the panel's image table endpoint, which
// requires a logged-in session cookie. Without a cookie media are reported
// as unavailable and left untouched on the storefront.
package sentos
