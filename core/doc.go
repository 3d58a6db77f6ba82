// Package core defines the provider contracts, request and response types,
// error taxonomy and usage accounting shared by every Scribe package.
//
// # Callers
//
// A [Caller] performs one authenticated request against a single provider
// endpoint and returns a decoded [Response]. Provider packages expose their
// endpoints as Callers so the request pool can dispatch opaque [Payload]
// values without knowing which provider it talks to:
//
//	client, err := openai.New("", openai.WithSettings(settings))
//	if err != nil {
//	    return err // *core.MissingCredentialError when no key is configured
//	}
//	p := pool.New(client.Completions(), pool.WithConcurrency(5))
//
// Higher-level interfaces ([ChatProvider], [ImageGenerator], [ImageSearcher],
// [VideoSearcher]) wrap the same transport with typed requests.
//
// # Credentials and Settings
//
// Credentials are resolved once, at construction. An explicit key wins;
// otherwise the key is read from [Settings] under [CredentialKey]. Keys are
// held in a [Secret], which redacts itself in logs, fmt verbs and JSON.
//
// # Error Handling
//
// Every failure from a provider call is a [*ProviderError] wrapping one of
// the sentinel errors, so callers can branch with errors.Is:
//
//	_, err := caller.Call(ctx, payload)
//	switch {
//	case errors.Is(err, core.ErrUnauthorized):
//	    // rotate the key
//	case errors.Is(err, core.ErrValidation):
//	    for field, msg := range core.FieldErrors(err) {
//	        log.Printf("%s: %s", field, msg)
//	    }
//	}
//
// [KindOf] maps any error onto a stable [ErrorKind] for exit codes and logs.
//
// # Usage
//
// A successful call that reports nonzero consumption produces exactly one
// [UsageRecord], appended to the configured [UsageRecorder] before Call
// returns. Recorder failures never fail the call; they surface as a
// [*UsageWarning] in [Response.Warnings].
//
// # Telemetry and Retries
//
// [TelemetryHook] observes request start and end without seeing secrets or
// request content. [Retry] re-runs an operation under a [RetryPolicy];
// only transport-class failures are retried.
package core
