package order

// state implements the state pattern for order lifecycle transitions.
// Only pending→processing, pending/processing→completed and
// pending/processing→cancelled are legal; terminal states reject everything.
type state interface {
	status() Status
	confirmPayment(o *Order) (state, error)
	complete(o *Order) (state, error)
	cancel(o *Order) (state, error)
}

func stateFor(s Status) state {
	switch s {
	case StatusPending:
		return pendingState{}
	case StatusProcessing:
		return processingState{}
	case StatusCompleted:
		return completedState{}
	case StatusCancelled:
		return cancelledState{}
	default:
		return invalidState{}
	}
}

type pendingState struct{}

func (pendingState) status() Status { return StatusPending }

func (pendingState) confirmPayment(*Order) (state, error) {
	return processingState{}, nil
}

func (pendingState) complete(*Order) (state, error) {
	return completedState{}, nil
}

func (pendingState) cancel(*Order) (state, error) {
	return cancelledState{}, nil
}

type processingState struct{}

func (processingState) status() Status { return StatusProcessing }

func (processingState) confirmPayment(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

func (processingState) complete(*Order) (state, error) {
	return completedState{}, nil
}

func (processingState) cancel(*Order) (state, error) {
	return cancelledState{}, nil
}

type completedState struct{}

func (completedState) status() Status { return StatusCompleted }

func (completedState) confirmPayment(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

func (completedState) complete(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

func (completedState) cancel(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

type cancelledState struct{}

func (cancelledState) status() Status { return StatusCancelled }

func (cancelledState) confirmPayment(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) complete(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) cancel(*Order) (state, error) {
	return nil, ErrInvalidStateTransition
}

type invalidState struct{}

func (invalidState) status() Status { return "" }

func (invalidState) confirmPayment(*Order) (state, error) {
	return nil, ErrInvalidStatus
}

func (invalidState) complete(*Order) (state, error) {
	return nil, ErrInvalidStatus
}

func (invalidState) cancel(*Order) (state, error) {
	return nil, ErrInvalidStatus
}
