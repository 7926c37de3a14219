package taxonomy

import "github.com/petal-labs/readyscan/core"

// registerBuiltins registers the closed set of risk categories.
// Called once by Global() during singleton initialization. Registration
// order is load-bearing: it defines the SARIF ruleIndex for each category.
func registerBuiltins(r *Registry) {
	r.Register(Entry{
		Category:         core.RiskMissingTimeoutGuard,
		Name:             "Missing Timeout Guard",
		ShortDescription: "Operation has no timeout protection",
		LongDescription: "The tool or server does not bound how long an operation may " +
			"run. Calls to unresponsive external services hang indefinitely, tying up " +
			"agent loops and upstream requests.",
		DefaultSeverity: core.SeverityHigh,
		Remediation: "Declare a timeout (for example 'timeout' or 'timeoutMs') with a " +
			"value appropriate for the operation, typically 30-60 seconds.",
	})

	r.Register(Entry{
		Category:         core.RiskUnsafeRetryLoop,
		Name:             "Unsafe Retry Loop",
		ShortDescription: "Retry behavior is unbounded or unthrottled",
		LongDescription: "Retry configuration is missing, unlimited, or lacks backoff. " +
			"Unbounded retries amplify outages, exhaust rate limits, and can turn a " +
			"transient failure into a resource-exhaustion incident.",
		DefaultSeverity: core.SeverityMedium,
		Remediation: "Set a finite retry limit (3-5 attempts) and configure exponential " +
			"backoff between attempts.",
	})

	r.Register(Entry{
		Category:         core.RiskMissingErrorSchema,
		Name:             "Missing Error Schema",
		ShortDescription: "Failure responses have no declared structure",
		LongDescription: "Without a declared error or output schema, callers cannot " +
			"programmatically distinguish failures from successes or route on error " +
			"codes. Failures end up handled by string matching or not at all.",
		DefaultSeverity: core.SeverityMedium,
		Remediation: "Declare an 'errorSchema' with a structured error code field, and " +
			"an 'outputSchema' for successful responses.",
	})

	r.Register(Entry{
		Category:         core.RiskOverloadedToolScope,
		Name:             "Overloaded Tool Scope",
		ShortDescription: "Tool scope is vague, generic, or too broad",
		LongDescription: "Tools that claim to do 'anything' or expose many unrelated " +
			"capabilities are hard to test, secure, and select correctly. Vague " +
			"descriptions also degrade agent tool-selection accuracy.",
		DefaultSeverity: core.SeverityMedium,
		Remediation: "Split broad tools into focused ones and write descriptions that " +
			"state the specific purpose, inputs, and outputs.",
	})

	r.Register(Entry{
		Category:         core.RiskSilentFailurePath,
		Name:             "Silent Failure Path",
		ShortDescription: "Failures can occur without surfacing to the caller",
		LongDescription: "The definition leaves room for failures to pass unnoticed: " +
			"missing validation, undocumented authentication, unreleased resources, " +
			"or best-effort semantics with no error reporting.",
		DefaultSeverity: core.SeverityMedium,
		Remediation: "Close the gaps that allow silent failure: validate inputs, " +
			"document authentication and cleanup, and report every error to the caller.",
	})

	r.Register(Entry{
		Category:         core.RiskNonDeterministicResponse,
		Name:             "Non-Deterministic Response",
		ShortDescription: "Repeated calls may not behave consistently",
		LongDescription: "State-changing operations without an idempotency contract " +
			"produce different outcomes when retried, which breaks safe retry logic " +
			"and can create duplicate side effects.",
		DefaultSeverity: core.SeverityInfo,
		Remediation: "Document whether operations are idempotent; add idempotency keys " +
			"for operations that are not.",
	})

	r.Register(Entry{
		Category:         core.RiskNoObservabilityHooks,
		Name:             "No Observability Hooks",
		ShortDescription: "No logging, metrics, tracing, or version information",
		LongDescription: "Without observability configuration or version metadata, " +
			"production issues cannot be traced back to a tool, a version, or a " +
			"specific invocation.",
		DefaultSeverity: core.SeverityLow,
		Remediation: "Add logging/metrics/tracing configuration and a semantic version " +
			"to the definition.",
	})
}
