/*
Package authsdk provides a client SDK for the TaskFlow authentication API.

# Overview

The package is organized around two types:

  - SDKClient: one method per endpoint, no state
  - Session: holds the tokens of a signed-in user and refreshes them

Create an SDKClient for the public endpoints:

	client := authsdk.NewSDKClient("http://localhost:3001")

	health, err := client.Health(ctx)
	_, err = client.ForgotPassword(ctx, "alice@example.com")

Create one Session per client process for authenticated calls:

	session := authsdk.NewSession(client, authsdk.NewFileTokenStore(path),
		authsdk.WithSessionEndedHook(func(err error) {
			// send the user back to the login screen
		}),
	)

	user, err := session.Login(ctx, "demo@taskflow.ai", "password123")
	user, err = session.Me(ctx)

Any request can be routed through Session.Do to get the same handling:

	req, _ := http.NewRequest(http.MethodGet, baseURL+"/api/tasks", nil)
	resp, err := session.Do(ctx, req)

# Token Refresh

Access tokens live for minutes, refresh tokens for days and are single use.
When a request comes back 401 with code TOKEN_EXPIRED, the Session exchanges
the stored refresh token for a new pair and retries the request once.

Refreshes are coordinated: however many requests fail at the same moment,
exactly one refresh call is made and every one of them is retried with its
result. A request that still gets 401 after the retry fails with
ErrRetryExhausted. A refresh that fails ends the session; waiting requests
get an error wrapping ErrSessionEnded and the stored refresh token is cleared.

Only TOKEN_EXPIRED triggers a refresh. INVALID_TOKEN, INVALID_CREDENTIALS and
other errors are returned to the caller untouched.

# Error Handling

Error responses are returned as *APIError and match the predefined values
with errors.Is:

	_, err := client.Login(ctx, email, password)
	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong email or password
	}

	if authsdk.IsTokenExpired(err) {
		// refresh, or let a Session do it
	}

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
