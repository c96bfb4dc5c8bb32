// Package cli holds the pieces shared by the everp commands: the user-facing
// error types that decide the process exit code, the progress spinner, and
// the output flags.
//
// Errors from the lower layers (session, oauth, gateway) are mapped onto a
// small set of CLI errors by Translate:
//
//   - AuthRequiredError: there is no usable session. Exit code 2.
//   - AuthFailedError: a login or token request was rejected. Exit code 3.
//   - ConnectionError: a server could not be reached. Exit code 1.
//
// Every CLI error message ends with the command that fixes it.
package cli
