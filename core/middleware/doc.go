// Package middleware groups the HTTP middleware of the server.
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a request id (RayID) stored in the fiber locals and echoed in the
//     X-Ray-ID response header, picked up by logger.WithRayID.
package middleware
