// Package reviews is the HTTP client for the review service.
//
// The service exposes a single read endpoint, GET {base}/api/reviews, which
// returns a JSON array of reviews ordered newest first:
//
//	[
//	  {
//	    "id": 1,
//	    "user_name": "A",
//	    "product_name": "P",
//	    "product_review": "Great",
//	    "created_at": "2024-01-02T10:00:00Z"
//	  }
//	]
//
// The client never re-sorts the payload; callers rely on index 0 being the
// most recent review.
//
// # Failures
//
// Every failure returned by FetchReviews is one of three types:
//
//   - *TransportError: the request could not be built or sent, or no
//     response arrived (DNS failure, connection refused, timeout, cancelled
//     context).
//   - *ResponseError: a response arrived with a status outside 2xx.
//   - *ParseError: the body is not a review array, or a field (for example
//     created_at) could not be interpreted.
//
// Use errors.As to tell them apart. Each Error() string is written to be
// shown to a user as-is.
//
// # Timestamps
//
// created_at is accepted in RFC 3339 form and in zone-less ISO 8601 form.
// Zone-less values are read as UTC, which is how the service stores them.
package reviews
