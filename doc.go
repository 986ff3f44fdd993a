// Package auth defines a backend agnostic authentication layer: a Provider
// contract implemented by identity backends, a Registry of providers, a
// Repository that screens and application code call, and the session
// model shared by all of them.
//
// Results:
//   - Operations that can end in more than one way return an AuthResult:
//     Success, Failure, RequiresEmailVerification, PasswordResetSent or
//     PasswordResetSuccess. Callers switch on the concrete type.
//   - Failures carry an *AuthError whose Kind belongs to a closed set.
//     MapError is the one place that translates backend errors into kinds.
//     Operations returning a plain error also return an *AuthError, and
//     Repository maps anything a provider lets through.
//
// Providers:
//   - Registry holds providers by id. The first registered provider is the
//     default unless another one is registered or set as default.
//   - NewRepositoryFromRegistry binds a Repository to the default provider.
//
// Auth state:
//   - Provider.ObserveAuthState streams Loading, Unauthenticated,
//     Authenticated and ErrorState values. StateMonitor subscribes once and
//     multicasts to any number of observers, demoting expired sessions to
//     Unauthenticated.
//
// Activity sinks:
//   - Repository reports every operation to an ActivitySink with the
//     outcome, error kind and duration. Sinks run best effort; errors are
//     logged and never fail the operation.
//
// The screens package builds login, registration, forgot password and
// reset password state machines on top of Repository. The provider/local
// package is a self contained backend with SQL or in memory storage.
package auth
