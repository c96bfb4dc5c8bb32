// Package mock provides an in-process stand-in for the everp authorization
// server and API gateway.
//
// Server implements the endpoints the CLI talks to:
//
//	GET  /.well-known/oauth-authorization-server
//	GET  /oauth2/authorize   auto-approves and redirects with code and state
//	POST /oauth2/token       authorization_code (PKCE S256 enforced) and refresh_token
//	POST /logout             revokes the bearer token
//	GET  /api/user/info      envelope-wrapped user info
//	GET  /api/business/profile
//
// Access tokens are HS256 JWTs so that claim inspection can be tested.
// A MockClock in ServerConfig expires them without waiting.
//
//	srv := mock.NewServer(mock.ServerConfig{})
//	defer srv.Close()
//	redirect, _ := srv.Authorize(authURL) // what the browser would be sent to
package mock
