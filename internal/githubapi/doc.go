// Package githubapi talks to the GitHub REST API, the raw content CDN and the
// archive endpoint over HTTP.
//
// JSON responses are decoded into generic values and inspected for the GitHub
// error envelope, a JSON object carrying a non-null "message" field, which is
// surfaced as RemoteAPIError regardless of the HTTP status code.
package githubapi
