// Package gemini wraps the Google Gemini API for exercise feedback,
// session reports, and risk assessments.
//
// Every task method degrades to a fixed fallback value instead of
// returning an error: a broken feedback message is less harmful to the
// live monitoring UI than a broken page. A circuit breaker short-circuits
// calls straight to the fallbacks while the API is unhealthy.
package gemini
