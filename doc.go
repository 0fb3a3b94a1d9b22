// Package authclient is the client side half of a login flow: it wires page
// events (login form, password toggle, "sign in with Google") to a remote
// authentication API and keeps the resulting session in a key/value storage.
//
// Capabilities:
//   - Page abstracts the DOM: events, location, navigation, the alert
//     container and the login controls. The browser package implements it on
//     top of syscall/js, cmd/authctl implements it for a terminal.
//   - Storage abstracts localStorage. MemoryStorage is the in-process
//     implementation, repository.LocalStorage persists to SQLite.
//
// Session lifecycle:
//   - A session is the pair of storage keys "token" and "user". It is created
//     by SubmitCredentials or CompleteOAuthCallback and removed by Logout.
//   - TokenPolicy decides whether a stored token is trusted on presence alone
//     (the default), rejected once its JWT exp claim has passed, or verified
//     against a JWKS endpoint.
//
// Delayed work (alert clearing, post login redirects) runs through a
// Scheduler. Tasks are named and rescheduling a name replaces the pending
// task, so a page never holds more than one pending redirect. Logout drops
// it.
package authclient
