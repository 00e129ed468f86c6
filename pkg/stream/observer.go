package stream

// Observer receives the progress of a Session. Both methods are called
// synchronously from the ingest loop.
type Observer interface {
	// OnProgress is called once per content frame with the full text
	// accumulated so far.
	OnProgress(text string)

	// OnError is called at most once, when the session fails.
	OnError(err error)
}

// ObserverFuncs adapts plain functions to an Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	Progress func(text string)
	Error    func(err error)
}

func (o ObserverFuncs) OnProgress(text string) {
	if o.Progress != nil {
		o.Progress(text)
	}
}

func (o ObserverFuncs) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}
