// Package fetcher downloads award pages and images from the society website.
//
// Requests carry a browser user agent chosen per request by an injected
// AgentPicker, are paced by a token-bucket limiter, retried with exponential
// backoff on transient failures, and optionally checked against robots.txt.
// HTML is converted to UTF-8 using the charset declared by the server or page.
package fetcher
