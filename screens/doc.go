// Package screens implements the state machines behind the login,
// registration, forgot password and reset password screens.
//
// Every machine has the same shape: the UI sends Actions through OnAction,
// renders from State or States, and consumes one-time Effects (navigation,
// notifications). Submitting a form validates the fields locally; only a
// valid form reaches the auth.Repository, and the loading flag gates
// duplicate submits until the call completes.
//
// A machine owns a scope bound to the screen's lifetime. Close cancels any
// in-flight call and late results are dropped without touching state.
package screens
