package domain

// RawPayload is an opaque serialized history blob together with the
// range it was fetched for. The body is whatever the backend returned;
// interpretation is the normalizer's job.
type RawPayload struct {
	Body  []byte
	Range TimeRange
}
