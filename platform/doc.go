// Package platform defines the social platform personas act on: its domain
// types (users, posts, threads, notifications), the Platform interface the
// agent and fleet packages consume, and an HTTP client for the platform API.
//
// The server side lives in platform/server and its storage backends in
// platform/store.
package platform
