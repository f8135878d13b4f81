package workflow

type State string

const (
	StateIdle                  State = "Idle"
	StateCollectingPaymentInfo State = "CollectingPaymentInfo"
	StateValidating            State = "Validating"
	StateCommitting            State = "Committing"
	StateCancelled             State = "Cancelled"
)

func (s State) String() string {
	return string(s)
}

var allowedTransitions = map[State][]State{
	StateIdle:                  {StateCollectingPaymentInfo},
	StateCollectingPaymentInfo: {StateValidating, StateCancelled},
	StateValidating:            {StateCollectingPaymentInfo, StateCommitting},
	StateCommitting:            {StateIdle},
	StateCancelled:             {StateIdle},
}

func CanTransitionTo(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
