package validation

import (
	"maps"

	"viacarona/internal/onboarding/models"
)

// FieldState is the derived state of one input field.
type FieldState struct {
	Value string
	Error string
	Valid bool
}

// EventKind distinguishes keystroke changes from focus loss.
type EventKind int

const (
	// EventChange is a new raw value. An empty value resets the field.
	EventChange EventKind = iota
	// EventBlur revalidates the current value, reporting "required" on empty.
	EventBlur
)

// Event is one input event for a field.
type Event struct {
	Kind  EventKind
	Field models.FieldKey
	Value string
}

// State is an immutable snapshot of a form's fields. Apply and Submit return
// new values and never modify the receiver.
type State struct {
	fields map[models.FieldKey]FieldState
}

// NewState returns an empty form state.
func NewState() State {
	return State{fields: map[models.FieldKey]FieldState{}}
}

// Field returns the state of k; unknown fields are the zero FieldState.
func (s State) Field(k models.FieldKey) FieldState {
	return s.fields[k]
}

// Value returns the raw value of k.
func (s State) Value(k models.FieldKey) string {
	return s.fields[k].Value
}

// Valid reports whether every listed field is currently valid.
func (s State) Valid(keys ...models.FieldKey) bool {
	for _, k := range keys {
		if !s.fields[k].Valid {
			return false
		}
	}
	return true
}

// Apply reduces one input event into a new state.
func (s State) Apply(ev Event, vctx Context) State {
	next := s.clone()

	switch ev.Kind {
	case EventChange:
		if ev.Value == "" {
			next.fields[ev.Field] = FieldState{}
		} else {
			next.fields[ev.Field] = next.evaluate(ev.Field, ev.Value, vctx)
		}
	case EventBlur:
		next.fields[ev.Field] = next.evaluate(ev.Field, next.fields[ev.Field].Value, vctx)
	}

	// confirmPassword depends on password; keep it in step when it has a value.
	if ev.Field == models.FieldPassword {
		if confirm := next.fields[models.FieldConfirmPassword]; confirm.Value != "" {
			next.fields[models.FieldConfirmPassword] = next.evaluate(models.FieldConfirmPassword, confirm.Value, vctx)
		}
	}
	return next
}

// Submit revalidates keys in order, including empty ones, and returns the new
// state along with the first failing field. ok is true when all passed.
func (s State) Submit(keys []models.FieldKey, vctx Context) (next State, first models.FieldKey, ok bool) {
	next = s.clone()
	ok = true
	for _, k := range keys {
		fs := next.evaluate(k, next.fields[k].Value, vctx)
		next.fields[k] = fs
		if !fs.Valid && ok {
			first, ok = k, false
		}
	}
	return next, first, ok
}

func (s State) evaluate(k models.FieldKey, value string, vctx Context) FieldState {
	vctx.PriorPassword = s.fields[models.FieldPassword].Value
	if k == models.FieldPassword {
		vctx.PriorPassword = value
	}
	v := Validate(k, value, vctx)
	return FieldState{Value: value, Error: v.Error, Valid: v.Valid}
}

func (s State) clone() State {
	fields := make(map[models.FieldKey]FieldState, len(s.fields)+1)
	maps.Copy(fields, s.fields)
	return State{fields: fields}
}
