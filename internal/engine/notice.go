package engine

type NoticeKind string

const (
	NoticeDivideByZero  NoticeKind = "divide_by_zero"
	NoticeComplexResult NoticeKind = "complex_result"
)

// Notice is a non-fatal message for the user raised by a transition.
type Notice struct {
	Kind    NoticeKind
	Message string
}

var (
	divideByZeroNotice = Notice{
		Kind:    NoticeDivideByZero,
		Message: "You're real clever, aren't you?",
	}
	complexResultNotice = Notice{
		Kind:    NoticeComplexResult,
		Message: "That's a complex number, and this calculator only does real ones. Starting over.",
	}
)

// Notifier receives notices as they are raised. Implementations must not call
// back into the engine.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a plain function to a Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
