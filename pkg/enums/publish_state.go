package enums

// PublishState tracks one platform's publish lifecycle inside a run.
type PublishState string

const (
	PublishStateIdle      PublishState = "idle"
	PublishStateUploading PublishState = "uploading"
	PublishStateSucceeded PublishState = "succeeded"
	PublishStateFailed    PublishState = "failed"
)

// String returns the literal string for the state.
func (p PublishState) String() string {
	return string(p)
}

// Terminal reports whether the state ends an upload attempt.
func (p PublishState) Terminal() bool {
	return p == PublishStateSucceeded || p == PublishStateFailed
}
