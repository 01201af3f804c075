// Package relay provides HTTP bindings of the sealpost collaborator
// interfaces against a message relay's REST API: blob storage for envelope
// uploads and downloads, inbox push/poll/acknowledge, and a URL shortener
// client. All requests are context-bound, retried with exponential backoff
// on transient status codes and optionally rate limited.
package relay
