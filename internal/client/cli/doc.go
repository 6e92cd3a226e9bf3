// Package cli provides the interactive LinkedCommunity command-line client.
//
// The App reads commands from a REPL and delegates to the identity manager,
// the feed coordinator and the avatar uploader. A background watcher prints
// session changes that did not come from a command, such as an expired
// refresh token.
//
//	Signed out: register, login, retry, logout, help, exit
//	Signed in:  whoami, edit, avatar, post, feed, mine, logout, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
