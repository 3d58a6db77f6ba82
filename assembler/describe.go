package assembler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/scribe/content"
	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/pool"
)

// Describe turns an error from Assemble, or from any provider call, into a
// message for the person running the tool. Configuration problems say what
// to configure, transient problems say to retry, and validation problems
// list the offending fields.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Try again, or raise the timeout."
	}

	provider := "the provider"
	var (
		pe *core.ProviderError
		ba *pool.BatchAbortedError
	)
	if errors.As(err, &pe) && pe.Provider != "" {
		provider = pe.Provider
	} else if errors.As(err, &ba) && ba.Provider != "" {
		provider = ba.Provider
	}

	switch core.KindOf(err) {
	case core.KindMissingCredential:
		var mc *core.MissingCredentialError
		if errors.As(err, &mc) {
			return fmt.Sprintf("No API key is configured for %s. Run `scribe keys set %s` or set %s.", mc.Provider, mc.Provider, mc.Key)
		}
		return "An API key is missing."
	case core.KindAuthentication:
		return fmt.Sprintf("%s rejected the API key. Check the key with `scribe keys list` and set a new one if needed.", provider)
	case core.KindPermissionDenied:
		return fmt.Sprintf("%s refused the request. The key may lack access to this model or the quota may be exhausted.", provider)
	case core.KindValidation:
		fields := core.FieldErrors(err)
		if len(fields) == 0 {
			return fmt.Sprintf("%s rejected the request: %s", provider, message(err, pe))
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, fields[name]))
		}
		return fmt.Sprintf("%s rejected the request:\n%s", provider, strings.Join(lines, "\n"))
	case core.KindUnknownVariant:
		return "The content contains a block type Scribe cannot read: " + err.Error()
	case core.KindBadRequest, core.KindUnprocessable:
		if errors.Is(err, content.ErrInvalidBlock) {
			return "The content contains a malformed block: " + err.Error()
		}
		if pe == nil && ba == nil {
			return "Invalid request: " + err.Error()
		}
		return fmt.Sprintf("%s rejected the request: %s", provider, message(err, pe))
	case core.KindNotFound:
		return fmt.Sprintf("%s could not find the requested model or resource. Check the configured model name.", provider)
	case core.KindConflict:
		return fmt.Sprintf("%s reported a conflict. Try again shortly.", provider)
	default:
		if errors.Is(err, core.ErrDecode) {
			return fmt.Sprintf("%s returned a response that could not be read. Try again; if it persists, try another model.", provider)
		}
		return fmt.Sprintf("Could not complete the request to %s. This is usually temporary; try again.", provider)
	}
}

func message(err error, pe *core.ProviderError) string {
	if pe != nil && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
