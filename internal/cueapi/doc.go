// Package cueapi is the monitor's HTTP client for the dashboard API routes.
//
// Every route answers with the same envelope: {data, status} for reads,
// {success:true} for actions, and {error, status} on failure. Post decodes
// that envelope and turns error envelopes into *RouteError values so the
// fetch and action layers have one failure shape to branch on.
//
// The client is stateless apart from its base URL and http.Client, and is
// safe for concurrent use. Fan-out callers share one instance.
package cueapi
