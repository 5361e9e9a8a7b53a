package gpio

// FakePin is a test double. Writes are recorded in History; reads return the
// scripted Levels one by one, repeating the last entry, or the written level
// when no script is set.
type FakePin struct {
	High    bool
	History []bool
	Levels  []bool
	Reads   int

	SetError  error
	ReadError error

	// OnRead, if set, runs before each read is served.
	OnRead func(reads int)
}

func NewFakePin() *FakePin {
	return &FakePin{}
}

func (f *FakePin) SetHigh() error { return f.set(true) }
func (f *FakePin) SetLow() error  { return f.set(false) }

func (f *FakePin) set(v bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.High = v
	f.History = append(f.History, v)
	return nil
}

func (f *FakePin) IsHigh() (bool, error) {
	if f.OnRead != nil {
		f.OnRead(f.Reads)
	}
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Levels) == 0 {
		return f.High, nil
	}
	v := f.Levels[0]
	if len(f.Levels) > 1 {
		f.Levels = f.Levels[1:]
	}
	return v, nil
}
