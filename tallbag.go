package tallbag

// Tallbag is the polymorphic callable shared by sources and sinks. It accepts
// DATA of type I, emits DATA of type O and carries metadata of type M.
type Tallbag[I, O, M any] interface {
	Handle(msg Message[I, O, M])
}

// Source only delivers data.
type Source[T, M any] = Tallbag[Void, T, M]

// Sink only receives data.
type Sink[T, M any] = Tallbag[T, Void, M]

// Func adapts a plain function to a Tallbag.
type Func[I, O, M any] func(msg Message[I, O, M])

func (f Func[I, O, M]) Handle(msg Message[I, O, M]) {
	f(msg)
}

// Start asks t to connect with peer. meta may be nil.
func Start[I, O, M any](t Tallbag[I, O, M], peer Tallbag[O, I, M], meta MetaChannel[M]) {
	t.Handle(StartMessage[I, O, M](peer, meta))
}

func Data[I, O, M any](t Tallbag[I, O, M], v I) {
	t.Handle(DataMessage[I, O, M](v))
}

// End terminates the connection t belongs to. A nil err is normal completion.
func End[I, O, M any](t Tallbag[I, O, M], err error) {
	t.Handle(EndMessage[I, O, M](err))
}

// Pull requests the next value from a control handle.
func Pull[T, M any](handle Source[T, M]) {
	handle.Handle(DataMessage[Void, T, M](Void{}))
}

// Reserved carries an extension message into t unchanged.
func Reserved[I, O, M any](t Tallbag[I, O, M], k Kind, payload any) {
	t.Handle(ReservedMessage[I, O, M](k, payload))
}

// Forward delivers msg to t as is. Relaying parties use it for every kind
// they do not interpret. A nil t drops the message.
func Forward[I, O, M any](t Tallbag[I, O, M], msg Message[I, O, M]) {
	if t == nil {
		return
	}
	t.Handle(msg)
}

// Operator derives one source from another. Operators are the stacking unit
// of pipelines; see Chain.
type Operator[T, R, M any] func(src Source[T, M]) Source[R, M]

// Chain applies ops to src in order. Nil operators are skipped.
func Chain[T, M any](src Source[T, M], ops ...Operator[T, T, M]) Source[T, M] {
	for _, op := range ops {
		if op != nil {
			src = op(src)
		}
	}
	return src
}
