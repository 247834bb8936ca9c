package tallbag

// Void stands in for a type that is never delivered, such as the DATA input
// of a pure source.
type Void = struct{}

// Message is the tagged union carried by every Tallbag call.
//
// Only the fields that belong to Kind are meaningful:
//   - START: Peer is the counterpart, Meta the optional metadata channel.
//   - DATA: Value.
//   - END: Err is the reason; nil means normal completion.
//   - reserved kinds: Payload, carried opaquely.
type Message[I, O, M any] struct {
	Kind    Kind
	Peer    Tallbag[O, I, M]
	Meta    MetaChannel[M]
	Value   I
	Err     error
	Payload any
}

func StartMessage[I, O, M any](peer Tallbag[O, I, M], meta MetaChannel[M]) Message[I, O, M] {
	return Message[I, O, M]{Kind: KindStart, Peer: peer, Meta: meta}
}

func DataMessage[I, O, M any](v I) Message[I, O, M] {
	return Message[I, O, M]{Kind: KindData, Value: v}
}

func EndMessage[I, O, M any](err error) Message[I, O, M] {
	return Message[I, O, M]{Kind: KindEnd, Err: err}
}

// ReservedMessage builds an extension message; k is expected to be reserved.
func ReservedMessage[I, O, M any](k Kind, payload any) Message[I, O, M] {
	return Message[I, O, M]{Kind: k, Payload: payload}
}

// Failed reports whether m terminates a connection with a reason.
func (m Message[I, O, M]) Failed() bool {
	return m.Kind == KindEnd && m.Err != nil
}
