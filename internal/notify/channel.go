package notify

// Channel publishes notifications to one browser
type Channel struct {
	center   *Center
	audience string
}

// Audience returns the browser this channel publishes to
func (ch *Channel) Audience() string {
	return ch.audience
}

// Success shows a success message
func (ch *Channel) Success(message string) {
	ch.publish("", LevelSuccess, message)
}

// Error shows an error message
func (ch *Channel) Error(message string) {
	ch.publish("", LevelError, message)
}

// Info shows an informational message
func (ch *Channel) Info(message string) {
	ch.publish("", LevelInfo, message)
}

// Warning shows a warning message
func (ch *Channel) Warning(message string) {
	ch.publish("", LevelWarning, message)
}

func (ch *Channel) publish(id string, level Level, message string) Notification {
	return ch.center.Publish(Notification{
		ID:       id,
		Audience: ch.audience,
		Level:    level,
		Message:  message,
		Duration: DurationFor(level),
	})
}

// PromiseMessages describes the three phases of a tracked operation
type PromiseMessages[T any] struct {
	Loading string
	Success func(T) string
	Error   func(error) string
}

// Text returns a success message that ignores the resolved value
func Text[T any](message string) func(T) string {
	return func(T) string { return message }
}

// ErrorText returns an error message that ignores the error
func ErrorText(message string) func(error) string {
	return func(error) string { return message }
}

// ErrorOr uses the error text, or fallback when it is empty
func ErrorOr(fallback string) func(error) string {
	return func(err error) string {
		if err != nil && err.Error() != "" {
			return err.Error()
		}
		return fallback
	}
}

// Promise runs fn while reporting loading, then success or error, under
// a single notification id. fn's result is returned unchanged.
func Promise[T any](ch *Channel, fn func() (T, error), msgs PromiseMessages[T]) (T, error) {
	loading := ch.publish("", LevelLoading, msgs.Loading)

	value, err := fn()
	if err != nil {
		message := err.Error()
		if msgs.Error != nil {
			message = msgs.Error(err)
		}
		ch.publish(loading.ID, LevelError, message)
		return value, err
	}

	message := ""
	if msgs.Success != nil {
		message = msgs.Success(value)
	}
	ch.publish(loading.ID, LevelSuccess, message)
	return value, nil
}
