package mqtt

// FakePublisher records published payloads for test assertions.
type FakePublisher struct {
	Statuses [][]byte
	Events   [][]byte

	// StatusError and EventError, if set, are returned by the matching publish.
	StatusError error
	EventError  error

	Closed bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) PublishStatus(payload []byte) error {
	if f.StatusError != nil {
		return f.StatusError
	}
	f.Statuses = append(f.Statuses, payload)
	return nil
}

func (f *FakePublisher) PublishEvent(payload []byte) error {
	if f.EventError != nil {
		return f.EventError
	}
	f.Events = append(f.Events, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
