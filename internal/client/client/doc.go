// Package client is the LinkedCommunity backend client.
//
// GRPCClient talks to the FeedService over gRPC with the JSON codec. It is
// at the same time the session provider (sign-up, sign-in, sign-out,
// session restore from the local cache, session-change notifications) and
// the remote store for profiles and posts used by the identity manager and
// the feed coordinator.
//
// Access tokens are attached by a unary interceptor. When the server
// answers Unauthenticated with "token expired" the client refreshes once,
// rotating the refresh token, and replays the call. A refresh rejected by
// the server ends the session.
//
// gRPC status codes are mapped back to the errors in package common, so
// callers match them with errors.Is.
package client
